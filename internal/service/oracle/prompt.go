package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iamasit07/drop4/internal/domain"
)

const functionName = "choose_column"

const systemPrompt = `You are playing Connect Four on a 6-row by 7-column board.
Players take turns dropping a disc into one of the columns 0-6 (0 is the leftmost column).
The disc falls to the lowest empty cell of that column.
The first player to connect four discs horizontally, vertically or diagonally wins.
Hard constraint: the chosen column must not be full. A column is full when its top cell (row 0) is occupied.
Answer with JSON only, in the form {"column": <integer>}.`

type requestMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type tool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type chatRequest struct {
	Model          string           `json:"model"`
	Messages       []requestMessage `json:"messages"`
	Temperature    float64          `json:"temperature"`
	ResponseFormat *responseFormat  `json:"response_format,omitempty"`
	Tools          []tool           `json:"tools,omitempty"`
}

var chooseColumnTool = tool{
	Type: "function",
	Function: toolFunction{
		Name:        functionName,
		Description: "Drop a disc into the given column.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"column": map[string]any{
					"type":        "integer",
					"minimum":     0,
					"maximum":     domain.Columns - 1,
					"description": "Zero-based index of a column that is not full.",
				},
			},
			"required": []string{"column"},
		},
	},
}

// buildUserPrompt describes the position twice: as a readable grid and as a
// JSON matrix, rows listed top to bottom.
func buildUserPrompt(board domain.Board, player domain.PlayerID) string {
	matrix, _ := json.Marshal(board.Marks())

	open := board.ValidMoves()
	openStr := make([]string, len(open))
	for i, c := range open {
		openStr[i] = fmt.Sprint(c)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s and your discs are marked %q. Your opponent is %s (%q). Empty cells are \"-\".\n",
		player.Name(), player.Mark(), player.Opponent().Name(), player.Opponent().Mark())
	sb.WriteString("Board, top row first, columns 0 to 6 from left to right:\n")
	sb.WriteString(board.String())
	sb.WriteString("\n\nSame board as a matrix (board[row][column], row 0 is the top):\n")
	sb.Write(matrix)
	fmt.Fprintf(&sb, "\n\nColumns that are not full: %s.\n", strings.Join(openStr, ", "))
	sb.WriteString("Choose your move and reply with {\"column\": <integer>}.")
	return sb.String()
}

func newChatRequest(model string, board domain.Board, player domain.PlayerID) chatRequest {
	return chatRequest{
		Model: model,
		Messages: []requestMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(board, player)},
		},
		Temperature:    0.2,
		ResponseFormat: &responseFormat{Type: "json_object"},
		Tools:          []tool{chooseColumnTool},
	}
}
