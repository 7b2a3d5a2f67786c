package evaluation

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/noah-isme/skillbridge-matcher/internal/matching"
)

type rawUser struct {
	ID       interface{}   `json:"id"`
	Teaches  []interface{} `json:"teaches"`
	Learns   []interface{} `json:"learns"`
	Rating   interface{}   `json:"rating"`
	Timezone interface{}   `json:"timezone"`
}

type rawLabel struct {
	Pair  []interface{} `json:"pair"`
	Score interface{}   `json:"score"`
}

// DecodeUsers reads a JSON array of user records. Fields of the wrong type fall
// back to their defaults instead of failing the whole file.
func DecodeUsers(r io.Reader) ([]matching.User, error) {
	var raw []rawUser
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	users := make([]matching.User, 0, len(raw))
	for _, u := range raw {
		id := asString(u.ID)
		if id == "" {
			continue
		}
		tz := matching.DefaultTimezone
		if s, ok := u.Timezone.(string); ok && strings.TrimSpace(s) != "" {
			tz = strings.TrimSpace(s)
		}
		users = append(users, matching.User{
			ID:       id,
			Teaches:  stringsOnly(u.Teaches),
			Learns:   stringsOnly(u.Learns),
			Rating:   asFloat(u.Rating),
			Timezone: tz,
		})
	}
	return users, nil
}

// DecodeLabels reads a JSON array of {"pair": [a, b], "score": n} items. Items
// without a two-element pair are skipped.
func DecodeLabels(r io.Reader) ([]Label, error) {
	var raw []rawLabel
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode ground truth: %w", err)
	}
	labels := make([]Label, 0, len(raw))
	for _, item := range raw {
		if len(item.Pair) != 2 {
			continue
		}
		a, b := asString(item.Pair[0]), asString(item.Pair[1])
		if a == "" || b == "" {
			continue
		}
		labels = append(labels, Label{Pair: [2]string{a, b}, Score: asFloat(item.Score)})
	}
	return labels, nil
}

// LoadUsers reads users from path.
func LoadUsers(path string) ([]matching.User, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open users file: %w", err)
	}
	defer f.Close()
	return DecodeUsers(f)
}

// LoadLabels reads ground truth from path.
func LoadLabels(path string) ([]Label, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ground truth file: %w", err)
	}
	defer f.Close()
	return DecodeLabels(f)
}

func stringsOnly(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func asFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
