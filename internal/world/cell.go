package world

// Cell is a growth-capable cell: a crop planted on farmland.
type Cell struct {
	Crop     string
	Age      int
	Light    int
	Hydrated bool
}
