package tsprep

// Call is one sample's genotype at a site. Alleles holds allele indices, with
// Missing for a "." call.
type Call struct {
	Alleles []int
	Phased  bool
}

// isMissing reports whether no allele of the call is known.
func (c Call) isMissing() bool {
	for _, a := range c.Alleles {
		if a >= 0 {
			return false
		}
	}
	return true
}

// Variant is a VCF record reduced to what site encoding needs. Calls are in
// VCF column order.
type Variant struct {
	Chromosome string
	Position   int
	ID         string
	Ref        string
	Alt        []string
	Calls      []Call
}
