package exerciseui

import (
	"fmt"

	"github.com/verte-zerg/codecheck/internal/model"
)

// BlockKind classifies a rendered block of the results region.
type BlockKind int

// Block kinds, in the order they can appear in a results region.
const (
	BlockLoading BlockKind = iota
	BlockError
	BlockTest
	BlockSummary
	BlockHint
)

func (k BlockKind) String() string {
	switch k {
	case BlockLoading:
		return "loading"
	case BlockError:
		return "error"
	case BlockTest:
		return "test"
	case BlockSummary:
		return "summary"
	case BlockHint:
		return "hint"
	default:
		return fmt.Sprintf("BlockKind(%d)", int(k))
	}
}

// Block is one unit of the results region.
type Block struct {
	Kind    BlockKind
	Passed  bool
	Label   string
	Message string
}

// User-facing texts.
const (
	DefaultTestLabel   = "Check"
	ExamplePlaceholder = "No example provided"
	EmptyCodeMessage   = "Enter code to check!"
	LoadingMessage     = "⏳ Checking code..."
	CheckUnreachable   = "❌ Could not reach the server. Make sure the backend is running."
)

// LoadFailedMessage is the alert for an application-level load failure.
func LoadFailedMessage(backendErr string) string {
	return "Failed to load exercise: " + backendErr
}

// LoadUnreachableMessage is the alert for a transport-level load failure.
func LoadUnreachableMessage(baseURL string) string {
	return "Could not reach the server. Make sure the backend is running at " + baseURL
}

// CheckFailedMessage is the inline panel for an application-level check failure.
func CheckFailedMessage(backendErr string) string {
	return "❌ Error: " + backendErr
}

// TestLabel labels the outcome at zero-based index i.
func TestLabel(i int, description string) string {
	if description == "" {
		description = DefaultTestLabel
	}
	return fmt.Sprintf("Test %d: %s", i+1, description)
}

// ResultBlocks projects a check result onto results blocks: one block per
// outcome in input order, a summary, and a hint only for failed results.
func ResultBlocks(result model.CheckResult) []Block {
	blocks := make([]Block, 0, len(result.Tests)+2)
	for i, test := range result.Tests {
		blocks = append(blocks, Block{
			Kind:    BlockTest,
			Passed:  test.Passed,
			Label:   TestLabel(i, test.Description),
			Message: test.Message,
		})
	}
	blocks = append(blocks, Block{Kind: BlockSummary, Passed: result.Passed, Message: result.Message})
	if !result.Passed && result.Hint != "" {
		blocks = append(blocks, Block{Kind: BlockHint, Message: result.Hint})
	}
	return blocks
}

func loadingBlocks() []Block {
	return []Block{{Kind: BlockLoading, Message: LoadingMessage}}
}

func errorBlocks(msg string) []Block {
	return []Block{{Kind: BlockError, Message: msg}}
}
