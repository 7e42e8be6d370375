package tsprep

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/carbocation/genomisc"
	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v3"
)

// StoreFormatVersion is written to the Metadata table of every store.
const StoreFormatVersion = "1"

var storeSchema = []string{
	`CREATE TABLE Metadata (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
	`CREATE TABLE Population (id INTEGER PRIMARY KEY, metadata TEXT NOT NULL)`,
	`CREATE TABLE Individual (
		id INTEGER PRIMARY KEY,
		population_id INTEGER NOT NULL REFERENCES Population(id),
		ploidy INTEGER NOT NULL,
		metadata TEXT NOT NULL
	)`,
	`CREATE TABLE Site (
		id INTEGER PRIMARY KEY,
		position INTEGER NOT NULL UNIQUE,
		alleles TEXT NOT NULL,
		ancestral_allele_index INTEGER,
		genotypes BLOB NOT NULL
	)`,
	`CREATE TABLE Provenance (run_id TEXT PRIMARY KEY, timestamp INTEGER NOT NULL, record TEXT NOT NULL)`,
}

// PopulationRow conforms to the rows of the Population table.
type PopulationRow struct {
	ID       int    `db:"id"`
	Metadata string `db:"metadata"`
}

// IndividualRow conforms to the rows of the Individual table.
type IndividualRow struct {
	ID           int    `db:"id"`
	PopulationID int    `db:"population_id"`
	Ploidy       int    `db:"ploidy"`
	Metadata     string `db:"metadata"`
}

// SiteRow conforms to the rows of the Site table. Alleles is a JSON array,
// Genotypes the zstd-compressed int8 genotype record, and a NULL ancestral
// index stands for Missing.
type SiteRow struct {
	ID                   int64    `db:"id"`
	Position             int      `db:"position"`
	Alleles              string   `db:"alleles"`
	AncestralAlleleIndex null.Int `db:"ancestral_allele_index"`
	Genotypes            []byte   `db:"genotypes"`
}

// ProvenanceRow conforms to the rows of the Provenance table.
type ProvenanceRow struct {
	RunID     string `db:"run_id"`
	Timestamp Time   `db:"timestamp"`
	Record    string `db:"record"`
}

// Store is a SQLite sample-data file. A Store returned by CreateStore is a
// Sink; one returned by OpenStore is read-only.
type Store struct {
	Path string
	DB   *sqlx.DB

	// Set only while writing
	partial      string
	tx           *sqlx.Tx
	insertSite   *sqlx.NamedStmt
	nPopulations int
	nIndividuals int
	raw          []byte
}

// CreateStore starts a new store at path. Everything is written inside one
// transaction to path + ".partial", which Finalize renames to path.
func CreateStore(path string) (*Store, error) {
	path = genomisc.ExpandHome(path)
	partial := path + ".partial"

	// Left over from an interrupted run
	if err := os.Remove(partial); err != nil && !os.IsNotExist(err) {
		return nil, pfx.Err(err)
	}

	db, err := connectStore(partial)
	if err != nil {
		return nil, pfx.Err(err)
	}

	s := &Store{Path: path, DB: db, partial: partial}

	for _, stmt := range storeSchema {
		if _, err := db.Exec(stmt); err != nil {
			s.discard()
			return nil, pfx.Err(err)
		}
	}

	if s.tx, err = db.Beginx(); err != nil {
		s.discard()
		return nil, pfx.Err(err)
	}

	s.insertSite, err = s.tx.PrepareNamed(`INSERT INTO Site (position, alleles, ancestral_allele_index, genotypes)
		VALUES (:position, :alleles, :ancestral_allele_index, :genotypes)`)
	if err != nil {
		s.discard()
		return nil, pfx.Err(err)
	}

	return s, nil
}

func (s *Store) writable() error {
	if s.tx == nil {
		return fmt.Errorf("store %s is not open for writing", s.Path)
	}
	return nil
}

func (s *Store) AddPopulation(metadata Metadata) (int, error) {
	if err := s.writable(); err != nil {
		return 0, err
	}

	md, err := json.Marshal(metadata)
	if err != nil {
		return 0, pfx.Err(err)
	}

	id := s.nPopulations
	if _, err := s.tx.Exec("INSERT INTO Population (id, metadata) VALUES (?, ?)", id, string(md)); err != nil {
		return 0, pfx.Err(err)
	}
	s.nPopulations++

	return id, nil
}

func (s *Store) AddIndividual(ploidy int, metadata Metadata, population int) (int, error) {
	if err := s.writable(); err != nil {
		return 0, err
	}
	if population < 0 || population >= s.nPopulations {
		return 0, fmt.Errorf("individual refers to population %d, but only %d populations were added", population, s.nPopulations)
	}
	if ploidy < 1 {
		return 0, fmt.Errorf("invalid ploidy %d", ploidy)
	}

	md, err := json.Marshal(metadata)
	if err != nil {
		return 0, pfx.Err(err)
	}

	id := s.nIndividuals
	_, err = s.tx.Exec("INSERT INTO Individual (id, population_id, ploidy, metadata) VALUES (?, ?, ?, ?)",
		id, population, ploidy, string(md))
	if err != nil {
		return 0, pfx.Err(err)
	}
	s.nIndividuals++

	return id, nil
}

func (s *Store) AddSite(position int, genotypes GenotypeRecord, alleles []string, ancestralAlleleIndex int) error {
	if err := s.writable(); err != nil {
		return err
	}

	al, err := json.Marshal(alleles)
	if err != nil {
		return pfx.Err(err)
	}

	s.raw = s.raw[:0]
	for _, g := range genotypes {
		s.raw = append(s.raw, byte(g))
	}

	row := SiteRow{
		Position:             position,
		Alleles:              string(al),
		AncestralAlleleIndex: null.NewInt(int64(ancestralAlleleIndex), ancestralAlleleIndex != Missing),
		Genotypes:            CompressZStandard(nil, s.raw),
	}
	if row.Genotypes == nil {
		// Sites without individuals; NULL is not allowed
		row.Genotypes = []byte{}
	}

	if _, err := s.insertSite.Exec(row); err != nil {
		return pfx.Err(fmt.Errorf("position %d: %w", position, err))
	}

	return nil
}

// Finalize writes the run metadata and provenance, commits, and moves the
// file to its final name.
func (s *Store) Finalize(info FinalizeInfo) error {
	if err := s.writable(); err != nil {
		return err
	}

	record, err := info.Provenance.JSON()
	if err != nil {
		return err
	}

	meta := [][2]string{
		{"format_version", StoreFormatVersion},
		{"chromosome", info.Chromosome},
		{"sequence_length", strconv.Itoa(info.SequenceLength)},
		{"sqlite_driver", whichSQLiteDriver},
	}
	for _, kv := range meta {
		if _, err := s.tx.Exec("INSERT INTO Metadata (key, value) VALUES (?, ?)", kv[0], kv[1]); err != nil {
			return pfx.Err(err)
		}
	}

	_, err = s.tx.Exec("INSERT INTO Provenance (run_id, timestamp, record) VALUES (?, ?, ?)",
		info.Provenance.RunID, Time(info.Provenance.Timestamp), record)
	if err != nil {
		return pfx.Err(err)
	}

	if err := s.insertSite.Close(); err != nil {
		return pfx.Err(err)
	}
	s.insertSite = nil
	if err := s.tx.Commit(); err != nil {
		return pfx.Err(err)
	}
	s.tx = nil

	if err := s.DB.Close(); err != nil {
		return pfx.Err(err)
	}

	if err := os.Rename(s.partial, s.Path); err != nil {
		return pfx.Err(err)
	}
	s.partial = ""

	return nil
}

// Abort drops everything written and removes the partial file. It is safe
// to call after a failed Finalize.
func (s *Store) Abort() error {
	if s.partial == "" {
		return nil
	}
	return s.discard()
}

func (s *Store) discard() error {
	if s.insertSite != nil {
		s.insertSite.Close()
		s.insertSite = nil
	}
	if s.tx != nil {
		s.tx.Rollback()
		s.tx = nil
	}
	s.DB.Close()

	if err := os.Remove(s.partial); err != nil && !os.IsNotExist(err) {
		return pfx.Err(err)
	}
	return nil
}

// OpenStore opens a finalized store for reading.
func OpenStore(path string) (*Store, error) {
	path = genomisc.ExpandHome(path)

	// sqlite would otherwise create an empty database
	if _, err := os.Stat(path); err != nil {
		return nil, pfx.Err(err)
	}

	db, err := connectStore(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return &Store{Path: path, DB: db}, nil
}

func (s *Store) Close() error {
	if s.tx != nil {
		return fmt.Errorf("store %s is still being written; call Finalize or Abort", s.Path)
	}
	return s.DB.Close()
}

// MetadataValue returns one entry of the Metadata table.
func (s *Store) MetadataValue(key string) (string, error) {
	var value string
	if err := s.DB.Get(&value, "SELECT value FROM Metadata WHERE key = ?", key); err != nil {
		return "", pfx.Err(err)
	}
	return value, nil
}

func (s *Store) Chromosome() (string, error) {
	return s.MetadataValue("chromosome")
}

func (s *Store) SequenceLength() (int, error) {
	value, err := s.MetadataValue("sequence_length")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, pfx.Err(err)
	}
	return n, nil
}

func (s *Store) Populations() ([]PopulationRow, error) {
	var out []PopulationRow
	if err := s.DB.Select(&out, "SELECT * FROM Population ORDER BY id ASC"); err != nil {
		return nil, pfx.Err(err)
	}
	return out, nil
}

func (s *Store) Individuals() ([]IndividualRow, error) {
	var out []IndividualRow
	if err := s.DB.Select(&out, "SELECT * FROM Individual ORDER BY id ASC"); err != nil {
		return nil, pfx.Err(err)
	}
	return out, nil
}

func (s *Store) Provenances() ([]ProvenanceRow, error) {
	var out []ProvenanceRow
	if err := s.DB.Select(&out, "SELECT * FROM Provenance ORDER BY timestamp ASC"); err != nil {
		return nil, pfx.Err(err)
	}
	return out, nil
}

// NumSites counts the rows of the Site table.
func (s *Store) NumSites() (int, error) {
	var n int
	if err := s.DB.Get(&n, "SELECT COUNT(*) FROM Site"); err != nil {
		return 0, pfx.Err(err)
	}
	return n, nil
}

// Sites decodes every site in position order and passes it to visit, stopping
// at the first error.
func (s *Store) Sites(visit func(*Site) error) error {
	chrom, err := s.Chromosome()
	if err != nil {
		return err
	}

	rows, err := s.DB.Queryx("SELECT * FROM Site ORDER BY position ASC")
	if err != nil {
		return pfx.Err(err)
	}
	defer rows.Close()

	var row SiteRow
	for rows.Next() {
		if err := rows.StructScan(&row); err != nil {
			return pfx.Err(err)
		}

		site, err := row.decode(chrom)
		if err != nil {
			return err
		}

		if err := visit(site); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

func (row SiteRow) decode(chrom string) (*Site, error) {
	site := &Site{
		Chromosome:           chrom,
		Position:             row.Position,
		AncestralAlleleIndex: Missing,
	}

	if err := json.Unmarshal([]byte(row.Alleles), &site.Alleles); err != nil {
		return nil, pfx.Err(fmt.Errorf("position %d: %w", row.Position, err))
	}
	if row.AncestralAlleleIndex.Valid {
		site.AncestralAlleleIndex = int(row.AncestralAlleleIndex.Int64)
	}

	site.Genotypes = GenotypeRecord{}
	if len(row.Genotypes) == 0 {
		return site, nil
	}

	raw, err := DecompressZStandard(nil, row.Genotypes)
	if err != nil {
		return nil, err
	}
	site.Genotypes = make(GenotypeRecord, len(raw))
	for i, b := range raw {
		site.Genotypes[i] = int8(b)
	}

	return site, nil
}
