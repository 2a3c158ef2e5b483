package tree

// Sample returns the default seed tree written to an empty store on first
// load. Ids are stable so repeated seeding is idempotent.
func Sample() *Node {
	return &Node{
		ID:   "root",
		Name: "Alma Whitfield",
		Born: "1921-03-04",
		Children: []*Node{
			{
				ID:   "gen2-ruth",
				Name: "Ruth Calloway",
				Born: "1948-11-19",
				Children: []*Node{
					{ID: "gen3-marcus", Name: "Marcus Calloway", Born: "1974-06-02"},
					{ID: "gen3-elena", Name: "Elena Calloway", Born: "1977-01-28"},
				},
			},
			{
				ID:   "gen2-harold",
				Name: "Harold Whitfield",
				Born: "1952-05-30",
				Children: []*Node{
					{ID: "gen3-june", Name: "June Whitfield", Born: "1980-09-14"},
				},
			},
		},
	}
}
