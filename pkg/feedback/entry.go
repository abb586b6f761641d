package feedback

import (
	"encoding/json"
	"strconv"

	"github.com/cohesivestack/valgo"
	"github.com/theapemachine/analogy/pkg/errors"
)

/*
Required lists the fields a submission must carry, in the order they are
checked and written. Comment is optional and always written last.
*/
var Required = []string{
	"target_domain",
	"final_analogy",
	"source_domain",
	"explanation",
	"rating_clarity",
	"rating_relational",
	"rating_familiarity",
	"rating_overall",
	"runtime_seconds",
}

// Header is the column layout of the feedback file.
var Header = append(append([]string{}, Required...), "comment")

const (
	minRating = 0
	maxRating = 5
)

/*
Entry is one user rating of a generated analogy. The analogy fields are an
echo of what the caller was shown and are not checked against any run.
*/
type Entry struct {
	TargetDomain      string  `json:"target_domain"`
	FinalAnalogy      string  `json:"final_analogy"`
	SourceDomain      string  `json:"source_domain"`
	Explanation       string  `json:"explanation"`
	RatingClarity     float64 `json:"rating_clarity"`
	RatingRelational  float64 `json:"rating_relational"`
	RatingFamiliarity float64 `json:"rating_familiarity"`
	RatingOverall     float64 `json:"rating_overall"`
	RuntimeSeconds    float64 `json:"runtime_seconds"`
	Comment           string  `json:"comment,omitempty"`
}

/*
Decode reads a submission, reporting the first absent required field in
Required order. A null value counts as absent.
*/
func Decode(body []byte) (Entry, error) {
	var (
		raw   map[string]json.RawMessage
		entry Entry
	)

	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return entry, errors.ErrValidation.WithMessagef("Invalid JSON body.")
	}

	for _, field := range Required {
		value, ok := raw[field]

		if !ok || string(value) == "null" {
			return entry, errors.ErrValidation.WithMessagef("Missing field: %s", field)
		}
	}

	targets := entry.fields()

	for _, field := range Header {
		value, ok := raw[field]

		if !ok || string(value) == "null" {
			continue
		}

		if err := json.Unmarshal(value, targets[field]); err != nil {
			return entry, errors.ErrValidation.WithMessagef("Invalid field: %s", field)
		}
	}

	return entry, nil
}

/*
Validate checks the ranges of the numeric fields: ratings on the 0 to 5
scale and a non-negative runtime.
*/
func (entry Entry) Validate() error {
	val := valgo.Is(
		valgo.Number(entry.RatingClarity, "rating_clarity").Between(minRating, maxRating),
	).Is(
		valgo.Number(entry.RatingRelational, "rating_relational").Between(minRating, maxRating),
	).Is(
		valgo.Number(entry.RatingFamiliarity, "rating_familiarity").Between(minRating, maxRating),
	).Is(
		valgo.Number(entry.RatingOverall, "rating_overall").Between(minRating, maxRating),
	).Is(
		valgo.Number(entry.RuntimeSeconds, "runtime_seconds").GreaterOrEqualTo(0),
	)

	if val.Valid() {
		return nil
	}

	invalid := val.Errors()

	for _, field := range Required {
		if _, ok := invalid[field]; ok {
			return errors.ErrValidation.WithMessagef("Invalid field: %s", field)
		}
	}

	return errors.ErrValidation.Wrap(val.Error())
}

func (entry *Entry) fields() map[string]any {
	return map[string]any{
		"target_domain":      &entry.TargetDomain,
		"final_analogy":      &entry.FinalAnalogy,
		"source_domain":      &entry.SourceDomain,
		"explanation":        &entry.Explanation,
		"rating_clarity":     &entry.RatingClarity,
		"rating_relational":  &entry.RatingRelational,
		"rating_familiarity": &entry.RatingFamiliarity,
		"rating_overall":     &entry.RatingOverall,
		"runtime_seconds":    &entry.RuntimeSeconds,
		"comment":            &entry.Comment,
	}
}

// row renders the entry in Header order.
func (entry Entry) row() []string {
	number := func(f float64) string {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	return []string{
		entry.TargetDomain,
		entry.FinalAnalogy,
		entry.SourceDomain,
		entry.Explanation,
		number(entry.RatingClarity),
		number(entry.RatingRelational),
		number(entry.RatingFamiliarity),
		number(entry.RatingOverall),
		number(entry.RuntimeSeconds),
		entry.Comment,
	}
}

func parseRow(record []string) (Entry, error) {
	if len(record) != len(Header) {
		return Entry{}, errors.ErrPersistence.WithMessagef(
			"feedback row has %d columns, want %d", len(record), len(Header),
		)
	}

	entry := Entry{
		TargetDomain: record[0],
		FinalAnalogy: record[1],
		SourceDomain: record[2],
		Explanation:  record[3],
		Comment:      record[9],
	}

	numbers := []*float64{
		&entry.RatingClarity,
		&entry.RatingRelational,
		&entry.RatingFamiliarity,
		&entry.RatingOverall,
		&entry.RuntimeSeconds,
	}

	for i, target := range numbers {
		value, err := strconv.ParseFloat(record[4+i], 64)
		if err != nil {
			return Entry{}, errors.ErrPersistence.WithMessagef("feedback column %s", Header[4+i]).Wrap(err)
		}

		*target = value
	}

	return entry, nil
}
