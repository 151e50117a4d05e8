package filter_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tutordex/aggregator/pkg/filter"
)

func defaultConfig() filter.Config {
	return filter.Config{MinChars: 20, CompilationThreshold: 3}
}

func TestEvaluate_ForwardedShortCircuitsFirst(t *testing.T) {
	post := filter.Post{Text: "", IsForwarded: true, IsDeleted: true}
	assert.Equal(t, filter.SkipForwarded, filter.Evaluate(post, defaultConfig()))
}

func TestEvaluate_DeletedBeforeEmptyCheck(t *testing.T) {
	post := filter.Post{Text: "", IsDeleted: true}
	assert.Equal(t, filter.SkipDeleted, filter.Evaluate(post, defaultConfig()))
}

func TestEvaluate_EmptyText(t *testing.T) {
	post := filter.Post{Text: "   "}
	assert.Equal(t, filter.SkipEmpty, filter.Evaluate(post, defaultConfig()))
}

func TestEvaluate_TooShort(t *testing.T) {
	post := filter.Post{Text: "need tutor"}
	assert.Equal(t, filter.SkipTooShort, filter.Evaluate(post, defaultConfig()))
}

func TestEvaluate_Blocklisted(t *testing.T) {
	cfg := defaultConfig()
	cfg.BlocklistRegex = regexp.MustCompile(`(?i)spam agency`)
	post := filter.Post{Text: "Tutor needed urgently, contact Spam Agency for more info today"}
	assert.Equal(t, filter.SkipBlocklisted, filter.Evaluate(post, cfg))
}

func TestEvaluate_CompilationByAssignmentCodes(t *testing.T) {
	post := filter.Post{Text: "TDX-001 Sec 3 Math, TDX-002 P6 English, TDX-003 JC1 Physics available now!"}
	assert.Equal(t, filter.SkipCompilation, filter.Evaluate(post, defaultConfig()))
}

func TestEvaluate_NonAssignmentGreeting(t *testing.T) {
	post := filter.Post{Text: "Good morning everyone, hope you all have a great day ahead!"}
	assert.Equal(t, filter.SkipNonAssignment, filter.Evaluate(post, defaultConfig()))
}

func TestEvaluate_PassesGenuineAssignment(t *testing.T) {
	post := filter.Post{Text: "Sec 3 student needs help with A Math, twice a week, $50/hr, near Ang Mo Kio."}
	assert.Equal(t, filter.SkipNone, filter.Evaluate(post, defaultConfig()))
}
