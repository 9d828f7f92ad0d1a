package game

// Symbol is a player's marker within a room.
type Symbol string

const (
	X     Symbol = "X"
	O     Symbol = "O"
	Empty Symbol = ""
)

// Draw is stored in a room's winner field when the board fills with no
// winning line.
const Draw = "Draw"

// Board is the 3x3 grid in row-major order.
type Board [9]Symbol

// winLines defines all possible winning combinations
var winLines = [][3]int{
	{0, 1, 2}, // top row
	{3, 4, 5}, // middle row
	{6, 7, 8}, // bottom row
	{0, 3, 6}, // left column
	{1, 4, 7}, // middle column
	{2, 5, 8}, // right column
	{0, 4, 8}, // diagonal
	{2, 4, 6}, // anti-diagonal
}

// Outcome is the result of inspecting a board.
type Outcome struct {
	// Winner is "X", "O" or Draw; empty while the game is still open.
	Winner string
	// Line holds the winning triple of cell indices, nil otherwise.
	Line []int
}

// Over reports whether the board is terminal.
func (o Outcome) Over() bool {
	return o.Winner != ""
}

// DetectOutcome checks the board for a winning line or a draw.
func DetectOutcome(b Board) Outcome {
	for _, line := range winLines {
		a, m, c := line[0], line[1], line[2]
		if b[a] != Empty && b[a] == b[m] && b[m] == b[c] {
			return Outcome{Winner: string(b[a]), Line: []int{a, m, c}}
		}
	}
	if full(b) {
		return Outcome{Winner: Draw}
	}
	return Outcome{}
}

// LegalMove reports whether idx addresses an empty cell.
func LegalMove(b Board, idx int) bool {
	return idx >= 0 && idx < len(b) && b[idx] == Empty
}

// EmptyCells returns the indices of all empty cells.
func EmptyCells(b Board) []int {
	var cells []int
	for i, c := range b {
		if c == Empty {
			cells = append(cells, i)
		}
	}
	return cells
}

// Opponent returns the other symbol.
func (s Symbol) Opponent() Symbol {
	if s == X {
		return O
	}
	return X
}

// Valid reports whether s is one of the two playable symbols.
func (s Symbol) Valid() bool {
	return s == X || s == O
}

func full(b Board) bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}
