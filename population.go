package tsprep

// Population is a breed or other grouping of individuals.
type Population struct {
	ID   int
	Name string
}

// PopulationRegistry hands out dense population IDs in first-seen order.
type PopulationRegistry struct {
	ids         map[string]int
	populations []Population
}

func NewPopulationRegistry() *PopulationRegistry {
	return &PopulationRegistry{ids: make(map[string]int)}
}

// Register returns the ID of name, allocating the next one if name is new.
func (r *PopulationRegistry) Register(name string) int {
	if id, exists := r.ids[name]; exists {
		return id
	}

	id := len(r.populations)
	r.ids[name] = id
	r.populations = append(r.populations, Population{ID: id, Name: name})

	return id
}

// Lookup returns the ID of a registered population.
func (r *PopulationRegistry) Lookup(name string) (int, bool) {
	id, exists := r.ids[name]
	return id, exists
}

func (r *PopulationRegistry) Len() int {
	return len(r.populations)
}

// Populations returns the registered populations ordered by ID.
func (r *PopulationRegistry) Populations() []Population {
	out := make([]Population, len(r.populations))
	copy(out, r.populations)
	return out
}
