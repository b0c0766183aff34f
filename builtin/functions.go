package builtin

import (
	"math"
	"sort"
	"strings"

	"github.com/vogtb/calcengine/token"
)

const secondsPerDay = 86400.0

func sumFn(_ *Registry, args []Arg) Value {
	total := 0.0
	for _, a := range args {
		for _, v := range a.Flatten() {
			if v.IsError() {
				return v
			}
			if v.Kind == VNumber {
				total += v.Num
			}
		}
	}
	return Number(total)
}

func averageFn(_ *Registry, args []Arg) Value {
	total, count := 0.0, 0
	for _, a := range args {
		for _, v := range a.Flatten() {
			if v.IsError() {
				return v
			}
			if v.Kind == VNumber {
				total += v.Num
				count++
			}
		}
	}
	if count == 0 {
		return Error(token.ErrDiv0)
	}
	return Number(total / float64(count))
}

// averageAFn is AVERAGE's text/boolean-aware sibling: every non-empty
// value counts towards the denominator (TRUE as 1, FALSE and text as
// 0), not just numeric ones.
func averageAFn(_ *Registry, args []Arg) Value {
	total := 0.0
	count := 0
	for _, a := range args {
		for _, v := range a.Flatten() {
			if v.IsError() {
				return v
			}
			switch v.Kind {
			case VNumber:
				total += v.Num
				count++
			case VBool:
				if v.Bool {
					total++
				}
				count++
			case VString:
				count++
			}
		}
	}
	if count == 0 {
		return Error(token.ErrRef)
	}
	return Number(total / float64(count))
}

func countFn(_ *Registry, args []Arg) Value {
	count := 0
	for _, a := range args {
		for _, v := range a.Flatten() {
			if v.Kind == VNumber {
				count++
			}
		}
	}
	return Number(float64(count))
}

func countAFn(_ *Registry, args []Arg) Value {
	count := 0
	for _, a := range args {
		for _, v := range a.Flatten() {
			if v.Kind != VEmpty {
				count++
			}
		}
	}
	return Number(float64(count))
}

func maxFn(_ *Registry, args []Arg) Value {
	found := false
	best := 0.0
	for _, a := range args {
		for _, v := range a.Flatten() {
			if v.IsError() {
				return v
			}
			if v.Kind != VNumber {
				continue
			}
			if !found || v.Num > best {
				best = v.Num
				found = true
			}
		}
	}
	return Number(best)
}

func minFn(_ *Registry, args []Arg) Value {
	found := false
	best := 0.0
	for _, a := range args {
		for _, v := range a.Flatten() {
			if v.IsError() {
				return v
			}
			if v.Kind != VNumber {
				continue
			}
			if !found || v.Num < best {
				best = v.Num
				found = true
			}
		}
	}
	return Number(best)
}

func medianFn(_ *Registry, args []Arg) Value {
	var values []float64
	for _, a := range args {
		for _, v := range a.Flatten() {
			if v.IsError() {
				return v
			}
			if v.Kind == VNumber {
				values = append(values, v.Num)
			}
		}
	}
	if len(values) == 0 {
		return Error(token.ErrNum)
	}
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 0 {
		return Number((values[mid-1] + values[mid]) / 2)
	}
	return Number(values[mid])
}

// modeFn returns the most frequently occurring number, the smallest
// of the tied values on a frequency tie, matching spreadsheet
// MODE.SNGL's tie-break. No value repeating is #N/A, not 0 — there is
// no mode to report.
func modeFn(_ *Registry, args []Arg) Value {
	freq := map[float64]int{}
	var order []float64
	for _, a := range args {
		for _, v := range a.Flatten() {
			if v.IsError() {
				return v
			}
			if v.Kind != VNumber {
				continue
			}
			if freq[v.Num] == 0 {
				order = append(order, v.Num)
			}
			freq[v.Num]++
		}
	}
	if len(freq) == 0 {
		return Error(token.ErrNum)
	}

	best := 0
	for _, n := range freq {
		if n > best {
			best = n
		}
	}
	if best == 1 {
		return Error(token.ErrNA)
	}

	sort.Float64s(order)
	for _, n := range order {
		if freq[n] == best {
			return Number(n)
		}
	}
	return Error(token.ErrNA)
}

func ifFn(_ *Registry, args []Arg) Value {
	if len(args) < 2 {
		return Error(token.ErrValue)
	}
	cond, errc := toBool(args[0].First())
	if errc != nil {
		return Error(*errc)
	}
	if cond {
		return args[1].First()
	}
	if len(args) >= 3 {
		return args[2].First()
	}
	return Boolean(false)
}

func andFn(_ *Registry, args []Arg) Value {
	result := true
	any := false
	for _, a := range args {
		for _, v := range a.Flatten() {
			b, errc := toBool(v)
			if errc != nil {
				return Error(*errc)
			}
			any = true
			result = result && b
		}
	}
	if !any {
		return Error(token.ErrValue)
	}
	return Boolean(result)
}

func orFn(_ *Registry, args []Arg) Value {
	result := false
	any := false
	for _, a := range args {
		for _, v := range a.Flatten() {
			b, errc := toBool(v)
			if errc != nil {
				return Error(*errc)
			}
			any = true
			result = result || b
		}
	}
	if !any {
		return Error(token.ErrValue)
	}
	return Boolean(result)
}

func notFn(_ *Registry, args []Arg) Value {
	if len(args) != 1 {
		return Error(token.ErrValue)
	}
	b, errc := toBool(args[0].First())
	if errc != nil {
		return Error(*errc)
	}
	return Boolean(!b)
}

func concatenateFn(_ *Registry, args []Arg) Value {
	var b strings.Builder
	for _, a := range args {
		for _, v := range a.Flatten() {
			s, errc := toText(v)
			if errc != nil {
				return Error(*errc)
			}
			b.WriteString(s)
		}
	}
	return String(b.String())
}

func lenFn(_ *Registry, args []Arg) Value {
	if len(args) != 1 {
		return Error(token.ErrValue)
	}
	s, errc := toText(args[0].First())
	if errc != nil {
		return Error(*errc)
	}
	return Number(float64(len([]rune(s))))
}

func upperFn(_ *Registry, args []Arg) Value {
	if len(args) != 1 {
		return Error(token.ErrValue)
	}
	s, errc := toText(args[0].First())
	if errc != nil {
		return Error(*errc)
	}
	return String(strings.ToUpper(s))
}

func lowerFn(_ *Registry, args []Arg) Value {
	if len(args) != 1 {
		return Error(token.ErrValue)
	}
	s, errc := toText(args[0].First())
	if errc != nil {
		return Error(*errc)
	}
	return String(strings.ToLower(s))
}

func trimFn(_ *Registry, args []Arg) Value {
	if len(args) != 1 {
		return Error(token.ErrValue)
	}
	s, errc := toText(args[0].First())
	if errc != nil {
		return Error(*errc)
	}
	fields := strings.Fields(s)
	return String(strings.Join(fields, " "))
}

func absFn(_ *Registry, args []Arg) Value {
	if len(args) != 1 {
		return Error(token.ErrValue)
	}
	n, errc := toNumber(args[0].First())
	if errc != nil {
		return Error(*errc)
	}
	return Number(math.Abs(n))
}

func roundFn(_ *Registry, args []Arg) Value {
	if len(args) != 2 {
		return Error(token.ErrValue)
	}
	n, errc := toNumber(args[0].First())
	if errc != nil {
		return Error(*errc)
	}
	d, errc := toNumber(args[1].First())
	if errc != nil {
		return Error(*errc)
	}
	scale := math.Pow(10, d)
	return Number(math.Round(n*scale) / scale)
}

func floorFn(_ *Registry, args []Arg) Value {
	if len(args) != 1 {
		return Error(token.ErrValue)
	}
	n, errc := toNumber(args[0].First())
	if errc != nil {
		return Error(*errc)
	}
	return Number(math.Floor(n))
}

func ceilingFn(_ *Registry, args []Arg) Value {
	if len(args) != 1 {
		return Error(token.ErrValue)
	}
	n, errc := toNumber(args[0].First())
	if errc != nil {
		return Error(*errc)
	}
	return Number(math.Ceil(n))
}

func sqrtFn(_ *Registry, args []Arg) Value {
	if len(args) != 1 {
		return Error(token.ErrValue)
	}
	n, errc := toNumber(args[0].First())
	if errc != nil {
		return Error(*errc)
	}
	if n < 0 {
		return Error(token.ErrNum)
	}
	return Number(math.Sqrt(n))
}

func powerFn(_ *Registry, args []Arg) Value {
	if len(args) != 2 {
		return Error(token.ErrValue)
	}
	base, errc := toNumber(args[0].First())
	if errc != nil {
		return Error(*errc)
	}
	exp, errc := toNumber(args[1].First())
	if errc != nil {
		return Error(*errc)
	}
	return Number(math.Pow(base, exp))
}

func modFn(_ *Registry, args []Arg) Value {
	if len(args) != 2 {
		return Error(token.ErrValue)
	}
	n, errc := toNumber(args[0].First())
	if errc != nil {
		return Error(*errc)
	}
	d, errc := toNumber(args[1].First())
	if errc != nil {
		return Error(*errc)
	}
	if d == 0 {
		return Error(token.ErrDiv0)
	}
	return Number(n - d*math.Floor(n/d))
}

func piFn(_ *Registry, _ []Arg) Value { return Number(math.Pi) }

func nowFn(r *Registry, _ []Arg) Value {
	return Number(float64(r.clock.Now().Unix()) / secondsPerDay)
}

func todayFn(r *Registry, _ []Arg) Value {
	return Number(math.Floor(float64(r.clock.Now().Unix()) / secondsPerDay))
}

func randFn(r *Registry, _ []Arg) Value { return Number(r.random.Float64()) }
