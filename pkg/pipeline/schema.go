package pipeline

import "github.com/akshita516/CHES-Data-Cleaning-Task/pkg/data"

// Kind classifies a raw column.
type Kind int

const (
	Numeric Kind = iota
	Text
)

func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "text"
}

// Schema describes the structure of a dataset.
type Schema struct {
	FeatureNames []string
	Types        []Kind
}

// Infer classifies each raw column. A column is numeric when every
// non-missing cell parses as a float; a column with no values at all counts
// as numeric so it can be recognised as entirely missing later.
func Infer(raw *data.RawTable) Schema {
	s := Schema{
		FeatureNames: append([]string(nil), raw.Header...),
		Types:        make([]Kind, len(raw.Header)),
	}
	for j := range raw.Header {
		for _, rec := range raw.Records {
			cell := rec[j]
			if raw.IsMissing(cell) {
				continue
			}
			if _, err := data.ParseFloat(cell); err != nil {
				s.Types[j] = Text
				break
			}
		}
	}
	return s
}

// Kind returns the kind of the named column.
func (s Schema) Kind(name string) (Kind, bool) {
	for j, n := range s.FeatureNames {
		if n == name {
			return s.Types[j], true
		}
	}
	return Text, false
}
