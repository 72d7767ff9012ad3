package reflects

import (
	"fmt"
	"reflect"
	"strings"
)

// Compatibility scores, lower is better. Rank offsets order candidates
// within a level.
const (
	Exact     = 0
	Widening  = 10
	Boxing    = 100
	Reference = 1000
	// added once per variadic candidate so fixed arity wins
	VariadicPenalty = 10000
)

// ScoreFunc scores argument i against parameter type t. ok is false when the
// argument cannot convert.
type ScoreFunc func(i int, t reflect.Type) (score int, ok bool)

type OverloadSet struct {
	Name       string
	Signatures []*Signature
}

// Match is a resolved candidate.
type Match struct {
	*Signature
	// Spread passes the last argument as the variadic slice
	Spread bool
	Score  int
}

type ResolutionError struct {
	Name       string
	ArgTypes   []string
	Candidates []string
	// Ambiguous is set when several candidates tie for the best score
	Ambiguous bool
}

func (r *ResolutionError) Error() string {
	args := strings.Join(r.ArgTypes, ", ")
	if r.Ambiguous {
		return fmt.Sprintf("ambiguous call %s(%s): candidates %s",
			r.Name, args, strings.Join(r.Candidates, ", "))
	}
	return fmt.Sprintf("no overload of %s accepts (%s): candidates %s",
		r.Name, args, strings.Join(r.Candidates, ", "))
}

// Resolve picks the candidate with the lowest aggregate score for arguments
// of the given foreign types.
func (o *OverloadSet) Resolve(argTypes []string, score ScoreFunc) (*Match, error) {
	n := len(argTypes)
	var best []*Match
	for _, sig := range o.Signatures {
		for _, m := range match(sig, n, score) {
			switch {
			case len(best) == 0 || m.Score < best[0].Score:
				best = []*Match{m}
			case m.Score == best[0].Score:
				best = append(best, m)
			}
		}
	}

	if len(best) == 1 {
		return best[0], nil
	}
	err := &ResolutionError{
		Name:     o.Name,
		ArgTypes: argTypes,
	}
	if len(best) == 0 {
		for _, sig := range o.Signatures {
			err.Candidates = append(err.Candidates, sig.String())
		}
	} else {
		err.Ambiguous = true
		for _, m := range best {
			err.Candidates = append(err.Candidates, m.String())
		}
	}
	return nil, err
}

func match(sig *Signature, n int, score ScoreFunc) (ret []*Match) {
	k := len(sig.Params)

	if !sig.Variadic {
		if n != k {
			return nil
		}
		if total, ok := sum(sig, n, false, score); ok {
			ret = append(ret, &Match{
				Signature: sig,
				Score:     total,
			})
		}
		return
	}

	if n < k-1 {
		return nil
	}
	if total, ok := sum(sig, n, false, score); ok {
		ret = append(ret, &Match{
			Signature: sig,
			Score:     total + VariadicPenalty,
		})
	}
	if n == k {
		// a sequence in the last position may fill the slice directly
		if total, ok := sum(sig, n, true, score); ok {
			ret = append(ret, &Match{
				Signature: sig,
				Spread:    true,
				Score:     total + VariadicPenalty,
			})
		}
	}
	if len(ret) == 2 {
		// prefer the better form; on a tie, the element form
		if ret[1].Score < ret[0].Score {
			ret = ret[1:]
		} else {
			ret = ret[:1]
		}
	}
	return
}

func sum(sig *Signature, n int, spread bool, score ScoreFunc) (int, bool) {
	total := 0
	for i := range n {
		s, ok := score(i, sig.ParamType(i, spread))
		if !ok {
			return 0, false
		}
		total += s
	}
	return total, true
}
