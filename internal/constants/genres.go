package constants

// GenreNames maps the catalog's fixed genre ids to display names. The
// set is closed upstream, so an id outside this table is a client error.
var GenreNames = map[int64]string{
	2:  "Point-and-click",
	4:  "Fighting",
	5:  "Shooter",
	7:  "Music",
	8:  "Platform",
	9:  "Puzzle",
	10: "Racing",
	11: "Real Time Strategy (RTS)",
	12: "Role-playing (RPG)",
	13: "Simulator",
	14: "Sport",
	15: "Strategy",
	16: "Turn-based strategy (TBS)",
	24: "Tactical",
	25: "Hack and slash/Beat 'em up",
	26: "Quiz/Trivia",
	30: "Pinball",
	31: "Adventure",
	32: "Indie",
	33: "Arcade",
	34: "Visual Novel",
	35: "Card & Board Game",
	36: "MOBA",
}

// GenreName returns the display name for a genre id and whether the id
// is known.
func GenreName(id int64) (string, bool) {
	name, ok := GenreNames[id]
	return name, ok
}
