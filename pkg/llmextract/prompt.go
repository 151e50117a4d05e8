package llmextract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// defaultSystemPrompt is used when Config.SystemPromptPath is empty. It
// describes the flat v2 JSON object the model must emit — spec §4.5's
// (a) "a system prompt (file or inline)".
const defaultSystemPrompt = `You extract structured tutoring-assignment data from a Telegram post.
Reply with a single JSON object only, no prose, no code fences, using exactly these keys:

  assignment_code       string   the post's own listing code, e.g. "TDX-001", if stated
  academic_display_text string   a short human-readable summary of level+subjects
  level                 string   education level, e.g. "Sec 3", "P6", "JC1"
  subjects              []string subjects requested, e.g. ["A Math", "Physics"]
  learning_mode         string   raw free-text mode as written, e.g. "online", "home tuition", "hybrid"
  address               []string free-text address fragments mentioned, if any
  postal_code           []string 6-digit Singapore postal codes mentioned, if any
  nearest_mrt           []string nearest MRT/LRT station names mentioned, if any
  lesson_schedule       []string raw schedule fragments as written in the post
  start_date            string   raw start-date text as written in the post
  time_availability     string   raw free-text availability/schedule description
  tutor_type            string   raw free-text tutor-type requirement as written
  rate_min              number   lower bound of the hourly rate, if stated
  rate_max              number   upper bound of the hourly rate, if stated
  rate_raw_text         string   the rate exactly as written in the post
  additional_remarks    string   any other notable free-text remarks

Omit a key (or set it to null/empty) when the post does not mention it. Never
invent a value that is not present in the post.`

// exampleSet is one (channel or agency) few-shot example file: a sequence
// of "### post" / "### json" fenced pairs appended verbatim after the
// system prompt.
type exampleSet struct {
	name    string
	content string
}

// PromptBuilder assembles the three-part prompt spec §4.5 describes: (a)
// system prompt, (b) a channel/agency-specific example set with a
// "general" fallback, (c) the raw post body. It is grounded on the
// teacher's runbook loader (pkg/runbook), which also resolves a
// file-backed resource with an in-process cache.
type PromptBuilder struct {
	systemPrompt string

	mu           sync.RWMutex
	exampleCache map[string]exampleSet
	exampleDir   string
}

// NewPromptBuilder loads the system prompt (from systemPromptPath if set,
// else the built-in default) and prepares example-set lookup against
// exampleDir. exampleDir is expected to contain "<key>.md" files plus a
// "general.md" fallback; a missing directory degrades to no examples
// rather than failing extraction.
func NewPromptBuilder(systemPromptPath, exampleDir string) (*PromptBuilder, error) {
	prompt := defaultSystemPrompt
	if systemPromptPath != "" {
		data, err := os.ReadFile(systemPromptPath)
		if err != nil {
			return nil, fmt.Errorf("reading system prompt file: %w", err)
		}
		prompt = string(data)
	}
	return &PromptBuilder{
		systemPrompt: prompt,
		exampleCache: make(map[string]exampleSet),
		exampleDir:   exampleDir,
	}, nil
}

// loadExampleSet returns the example set for key, reading "<key>.md" from
// exampleDir and falling back to "general.md" when that file is not on
// disk. The result is cached per key after the first lookup.
func (b *PromptBuilder) loadExampleSet(key string) exampleSet {
	b.mu.RLock()
	cached, ok := b.exampleCache[key]
	b.mu.RUnlock()
	if ok {
		return cached
	}

	set := exampleSet{name: "general"}
	if b.exampleDir != "" {
		if data, err := os.ReadFile(filepath.Join(b.exampleDir, key+".md")); err == nil {
			set = exampleSet{name: key, content: string(data)}
		} else if data, err := os.ReadFile(filepath.Join(b.exampleDir, "general.md")); err == nil {
			set = exampleSet{name: "general", content: string(data)}
		}
	}

	b.mu.Lock()
	b.exampleCache[key] = set
	b.mu.Unlock()
	return set
}

// assembled is the built prompt plus the auditability metadata spec §4.5
// says must land in the job's meta.
type assembled struct {
	systemPrompt  string
	userPrompt    string
	promptSHA256  string
	exampleSetSig string
}

// Build assembles the full prompt for one raw post. exampleKey is
// normally the channel's agency_registry tag, or the channel key itself
// when no registry tag is set; an empty exampleKey always resolves to
// the general set.
func (b *PromptBuilder) Build(exampleKey, rawText string) assembled {
	if exampleKey == "" {
		exampleKey = "general"
	}
	set := b.loadExampleSet(exampleKey)

	var user strings.Builder
	if set.content != "" {
		user.WriteString(strings.TrimSpace(set.content))
		user.WriteString("\n\n")
	}
	user.WriteString("### post\n")
	user.WriteString(rawText)

	return assembled{
		systemPrompt:  b.systemPrompt,
		userPrompt:    user.String(),
		promptSHA256:  sha256Hex(b.systemPrompt),
		exampleSetSig: exampleSetSignature(set),
	}
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// exampleSetSignature names which example set backed a call and hashes
// its content, so two jobs can be compared for "was the same prompt used"
// without storing the full set in meta each time.
func exampleSetSignature(set exampleSet) string {
	if set.content == "" {
		return fmt.Sprintf("%s:empty", set.name)
	}
	return fmt.Sprintf("%s:%s", set.name, sha256Hex(set.content)[:12])
}
