// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package novel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/pdiddy/novel-engine/internal/prompt"
	"github.com/pdiddy/novel-engine/pkg/types"
)

var (
	jsonFence = regexp.MustCompile("(?s)```json(.*?)```")
	digits    = regexp.MustCompile(`[0-9]+`)
)

// recentChapters is how far back a character's last appearance may be and
// still be included in a chapter's character context.
const recentChapters = 2

// Characters tracks character profiles and per-chapter mentions.
type Characters struct {
	set types.CharacterSet
}

// NewCharacters returns an empty tracker.
func NewCharacters() *Characters {
	return &Characters{set: types.CharacterSet{
		Characters: map[string]types.Character{},
		Mentions:   map[string]map[string]int{},
	}}
}

// LoadCharacters reads characters.json. It returns fs.ErrNotExist (wrapped)
// when the file is absent.
func LoadCharacters(path string) (*Characters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	c := NewCharacters()
	if err := json.Unmarshal(data, &c.set); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if c.set.Characters == nil {
		c.set.Characters = map[string]types.Character{}
	}
	if c.set.Mentions == nil {
		c.set.Mentions = map[string]map[string]int{}
	}
	return c, nil
}

// Save writes the tracker as indented JSON.
func (c *Characters) Save(path string) error {
	data, err := json.MarshalIndent(c.set, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling characters: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Set returns a deep copy of the tracked state.
func (c *Characters) Set() types.CharacterSet {
	out := types.CharacterSet{
		Characters: make(map[string]types.Character, len(c.set.Characters)),
		Mentions:   make(map[string]map[string]int, len(c.set.Mentions)),
	}
	for k, v := range c.set.Characters {
		out.Characters[k] = v
	}
	for ch, m := range c.set.Mentions {
		cp := make(map[string]int, len(m))
		for k, v := range m {
			cp[k] = v
		}
		out.Mentions[ch] = cp
	}
	return out
}

// Len returns the number of tracked characters.
func (c *Characters) Len() int { return len(c.set.Characters) }

// Add stores ch under its lower-cased name. A first appearance that is not
// a chapter number is reset to "0", meaning not yet seen. An unset last
// appearance starts at the first.
func (c *Characters) Add(ch types.Character) {
	if _, err := strconv.Atoi(strings.TrimSpace(ch.FirstAppearance)); err != nil {
		ch.FirstAppearance = "0"
		ch.LastAppearance = "0"
	}
	if strings.TrimSpace(ch.LastAppearance) == "" {
		ch.LastAppearance = ch.FirstAppearance
	}
	c.set.Characters[strings.ToLower(ch.Name)] = ch
}

// Get looks a character up by name, ignoring case.
func (c *Characters) Get(name string) (types.Character, bool) {
	ch, ok := c.set.Characters[strings.ToLower(name)]
	return ch, ok
}

// UpdateAppearances scans a chapter draft for character names. Each name
// found sets the character's last appearance, fills an unset first
// appearance, and records how many times the name occurs in the draft.
func (c *Characters) UpdateAppearances(content string, chapter int) {
	lower := strings.ToLower(content)
	key := strconv.Itoa(chapter)

	for name, ch := range c.set.Characters {
		n := strings.Count(lower, name)
		if n == 0 {
			continue
		}
		if ch.FirstAppearance == "" || ch.FirstAppearance == "0" {
			ch.FirstAppearance = key
		}
		ch.LastAppearance = key
		c.set.Characters[name] = ch

		if c.set.Mentions[key] == nil {
			c.set.Mentions[key] = map[string]int{}
		}
		c.set.Mentions[key][name] = n
	}
}

// Context renders the profiles relevant to chapter: characters not yet
// placed and those seen within the last two chapters.
func (c *Characters) Context(chapter int) string {
	names := make([]string, 0, len(c.set.Characters))
	for name := range c.set.Characters {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Current Character Profiles:\n")
	for _, name := range names {
		ch := c.set.Characters[name]
		if last, ok := appearance(ch.LastAppearance); ok && last > 0 && last < chapter-recentChapters {
			continue
		}

		last := ch.LastAppearance
		if last == "" || last == "0" {
			last = "N/A"
		}
		fmt.Fprintf(&b, "\nName: %s\nRole: %s\nDescription: %s\nKey Traits: %s\nRecent Activity: Last appeared in Chapter %s\n",
			ch.Name, ch.Role, ch.Description, strings.Join(ch.KeyTraits, ", "), last)
	}
	return b.String()
}

// appearance reads the digits out of values like "3" or "Chapter 3".
func appearance(s string) (int, bool) {
	m := digits.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	return n, err == nil
}

// profile is a character as returned by the model. Models disagree on the
// shape of several fields, so those are decoded by hand.
type profile struct {
	Name            string          `json:"name"`
	Role            string          `json:"role"`
	Description     string          `json:"description"`
	Personality     string          `json:"personality"`
	Relationships   json.RawMessage `json:"relationships"`
	KeyTraits       json.RawMessage `json:"key_traits"`
	FirstAppearance json.RawMessage `json:"first_appearance"`
	StoryArc        string          `json:"story_arc"`
}

// ParseCharacters reads the character agent's reply: a JSON array of
// profiles, inside a ```json fence when one is present. Profiles without a
// name are skipped. Unparseable replies fail with types.ErrBackend.
func ParseCharacters(reply string) ([]types.Character, error) {
	body := reply
	if m := jsonFence.FindStringSubmatch(reply); m != nil {
		body = m[1]
	}
	body = strings.TrimSpace(strings.ReplaceAll(body, prompt.Terminator, ""))

	// Models often wrap the array in prose; keep the outermost brackets.
	if i, j := strings.Index(body, "["), strings.LastIndex(body, "]"); i >= 0 && j > i {
		body = body[i : j+1]
	}

	// Model JSON is often almost valid: trailing commas, single quotes,
	// missing brackets. Repair it before decoding.
	if repaired, err := jsonrepair.JSONRepair(body); err == nil {
		body = repaired
	}

	var profiles []profile
	if err := json.Unmarshal([]byte(body), &profiles); err != nil {
		return nil, fmt.Errorf("%w: character profiles are not a JSON array: %v", types.ErrBackend, err)
	}

	var out []types.Character
	for _, p := range profiles {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		first := rawString(p.FirstAppearance)
		out = append(out, types.Character{
			Name:            p.Name,
			Role:            p.Role,
			Description:     p.Description,
			Personality:     p.Personality,
			Relationships:   relationships(p.Relationships),
			KeyTraits:       traits(p.KeyTraits),
			FirstAppearance: first,
			LastAppearance:  first,
			StoryArc:        p.StoryArc,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no named character profiles in reply", types.ErrBackend)
	}
	return out, nil
}

// rawString turns a JSON string or number into its text form.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// rawText is rawString that keeps any other JSON value in compact form.
func rawText(raw json.RawMessage) string {
	if s := rawString(raw); s != "" {
		return s
	}
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

var (
	relationNameKeys  = []string{"name", "character", "with", "target"}
	relationValueKeys = []string{"relationship", "relation", "type", "description"}
)

// relationships accepts {"Name": "Friend"}, [{"name": "Name",
// "relationship": "Friend"}], or ["Name: Friend"].
func relationships(raw json.RawMessage) map[string]string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		out := make(map[string]string, len(obj))
		for name, v := range obj {
			out[name] = rawText(v)
		}
		return out
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	out := map[string]string{}
	for _, item := range list {
		if s := rawString(item); s != "" {
			name, rel, _ := strings.Cut(s, ":")
			out[strings.TrimSpace(name)] = strings.TrimSpace(rel)
			continue
		}
		var entry map[string]json.RawMessage
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		name := firstField(entry, relationNameKeys)
		if name == "" {
			continue
		}
		out[name] = firstField(entry, relationValueKeys)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func firstField(entry map[string]json.RawMessage, keys []string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(rawText(entry[k])); s != "" {
			return s
		}
	}
	return ""
}

// traits accepts a list of traits or a single comma-separated string.
func traits(raw json.RawMessage) []string {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		var out []string
		for _, item := range list {
			if s := strings.TrimSpace(rawText(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	var out []string
	for _, t := range strings.Split(rawString(raw), ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// isNotExist reports whether err means a file was absent.
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
