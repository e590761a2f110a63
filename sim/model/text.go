package model

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Text format section names and keys.
const (
	sectionParameters    = "parameters"
	sectionSpecies       = "species"
	sectionRateConstants = "rateconstants"
	sectionReactions     = "reactions"
	sectionEnd           = "end"

	keyNumUnits        = "num_units"
	keyTerminationTime = "termination_time"
	keyAnalysisTime    = "analysis_time"

	keyC0         = "[C0]"
	keyFW         = "FW"
	keyEfficiency = "f"
)

var requiredSections = []string{sectionParameters, sectionSpecies, sectionRateConstants, sectionReactions}

// ParseText decodes the sectioned text format:
//
//	parameters
//	  num_units = 1e6
//	  termination_time = 3600
//	  analysis_time = 60
//	end
//	species
//	  M  A    [C0]=1.0  FW=100
//	  I  AIBN [C0]=0.01 f=0.5
//	  U  R
//	  P  P[A]
//	  LABEL P P[A]|P[B]
//	end
//	rateconstants
//	  kp = 1e3
//	end
//	reactions
//	  PR P + A -kp-> P
//	end
//
// Blank lines and lines starting with '#' or '/' are ignored.
func ParseText(r io.Reader) (*Model, error) {
	sections, err := readSections(r)
	if err != nil {
		return nil, err
	}

	m := &Model{}
	if m.Parameters, err = parseParameters(sections[sectionParameters]); err != nil {
		return nil, err
	}
	if m.Species, err = parseSpecies(sections[sectionSpecies]); err != nil {
		return nil, err
	}
	if m.RateConstants, err = parseRateConstants(sections[sectionRateConstants]); err != nil {
		return nil, err
	}
	if m.Reactions, err = parseReactions(sections[sectionReactions]); err != nil {
		return nil, err
	}
	return m, nil
}

func canIgnoreLine(line string) bool {
	return line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "/")
}

// readSections collects the body lines of every known section. Each section
// is read once; text outside sections is ignored.
func readSections(r io.Reader) (map[string][]string, error) {
	sections := make(map[string][]string, len(requiredSections))
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if canIgnoreLine(line) {
			continue
		}
		name := sectionName(line)
		if name == "" {
			continue
		}
		if _, seen := sections[name]; seen {
			continue
		}

		start := lineNo
		body := []string{}
		closed := false
		for scanner.Scan() {
			lineNo++
			line := strings.TrimSpace(scanner.Text())
			if canIgnoreLine(line) {
				continue
			}
			if strings.HasPrefix(line, sectionEnd) {
				closed = true
				break
			}
			body = append(body, line)
		}
		if !closed {
			return nil, fmt.Errorf("line %d: reached end of file while parsing %s section", start, name)
		}
		sections[name] = body
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}

	for _, name := range requiredSections {
		if len(sections[name]) == 0 {
			return nil, fmt.Errorf("missing or empty %s section", name)
		}
	}
	return sections, nil
}

func sectionName(line string) string {
	for _, name := range requiredSections {
		if strings.HasPrefix(line, name) {
			return name
		}
	}
	return ""
}

// parseVariable splits "name = value" into its trimmed parts.
func parseVariable(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok || strings.Contains(value, "=") {
		return "", "", fmt.Errorf("variable %q is not in 'name=value' format", s)
	}
	return strings.TrimSpace(name), strings.TrimSpace(value), nil
}

func parseFloat(name, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", name, value)
	}
	return f, nil
}

// parseCount accepts plain integers and integral floats such as "1e6".
func parseCount(name, value string) (uint64, error) {
	if n, err := strconv.ParseUint(value, 10, 64); err == nil {
		return n, nil
	}
	f, err := parseFloat(name, value)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != float64(uint64(f)) {
		return 0, fmt.Errorf("%s: %q is not a non-negative integer", name, value)
	}
	return uint64(f), nil
}

func parseParameters(lines []string) (Parameters, error) {
	var p Parameters
	found := make(map[string]bool)
	for _, line := range lines {
		name, value, err := parseVariable(line)
		if err != nil {
			return p, fmt.Errorf("parameters: %w", err)
		}
		switch name {
		case keyNumUnits:
			p.NumUnits, err = parseCount(name, value)
		case keyTerminationTime:
			p.TerminationTime, err = parseFloat(name, value)
		case keyAnalysisTime:
			p.AnalysisTime, err = parseFloat(name, value)
		default:
			err = fmt.Errorf("unknown parameter %q", name)
		}
		if err != nil {
			return p, fmt.Errorf("parameters: %w", err)
		}
		found[name] = true
	}
	for _, key := range []string{keyNumUnits, keyTerminationTime, keyAnalysisTime} {
		if !found[key] {
			return p, fmt.Errorf("parameters: required variable %q not found", key)
		}
	}
	return p, nil
}

// parseSpecies reads units, polymer types and labels. Polymer end groups
// come from the bracketed part of the name: "P[A.B]" ends in A then B.
func parseSpecies(lines []string) (Species, error) {
	var s Species
	for _, line := range lines {
		args := strings.Fields(line)
		if len(args) < 2 {
			return s, fmt.Errorf("species: %q: definition requires at least 2 arguments: <type> <name>", line)
		}
		typ, name := args[0], args[1]
		switch {
		case validUnitTypes[typ]:
			u, err := parseUnit(typ, name, args[2:])
			if err != nil {
				return s, fmt.Errorf("species: %w", err)
			}
			s.Units = append(s.Units, u)
		case typ == "P":
			s.Polymers = append(s.Polymers, PolymerType{Name: name, EndGroupUnits: endGroupFromName(name)})
		case typ == "LABEL":
			if len(args) != 3 {
				return s, fmt.Errorf("species: label %q requires polymer names separated by '|', e.g. LABEL P P[A]|P[B]", name)
			}
			s.Labels = append(s.Labels, Label{Name: name, PolymerNames: strings.Split(args[2], "|")})
		default:
			return s, fmt.Errorf("species: %q: unknown species type %q", name, typ)
		}
	}
	return s, nil
}

func parseUnit(typ, name string, vars []string) (Unit, error) {
	u := Unit{Name: name, Type: typ}
	for _, v := range vars {
		key, value, err := parseVariable(v)
		if err != nil {
			return u, fmt.Errorf("unit %q: %w", name, err)
		}
		f, err := parseFloat(key, value)
		if err != nil {
			return u, fmt.Errorf("unit %q: %w", name, err)
		}
		switch key {
		case keyC0:
			u.C0 = f
		case keyFW:
			u.FW = f
		case keyEfficiency:
			u.Efficiency = &f
		default:
			return u, fmt.Errorf("unit %q: unknown variable %q", name, key)
		}
	}
	if typ == "I" && u.Efficiency == nil {
		return u, fmt.Errorf("unit %q: initiators require an efficiency (%s=...)", name, keyEfficiency)
	}
	return u, nil
}

func endGroupFromName(name string) []string {
	start := strings.Index(name, "[")
	end := strings.Index(name, "]")
	if start < 0 || end <= start+1 {
		return nil
	}
	return strings.Split(name[start+1:end], ".")
}

func parseRateConstants(lines []string) ([]RateConstant, error) {
	out := make([]RateConstant, 0, len(lines))
	for _, line := range lines {
		name, value, err := parseVariable(line)
		if err != nil {
			return nil, fmt.Errorf("rate constants: %w", err)
		}
		k, err := parseFloat(name, value)
		if err != nil {
			return nil, fmt.Errorf("rate constants: %w", err)
		}
		out = append(out, RateConstant{Name: name, Value: k})
	}
	return out, nil
}

// parseReaction reads "<TAG> A + B -k-> C + D".
func parseReaction(line string) (Reaction, error) {
	args := strings.Fields(line)
	if len(args) < 4 {
		return Reaction{}, fmt.Errorf("reactions: %q: requires at least 4 arguments: <type> <reactants> -<rateConstantName>-> <products>", line)
	}

	r := Reaction{Type: args[0]}
	isReactants := true
	for _, arg := range args[1:] {
		if strings.HasPrefix(arg, "-") && strings.HasSuffix(arg, "->") && len(arg) > 3 {
			if !isReactants {
				return r, fmt.Errorf("reactions: %q: more than one rate constant arrow", line)
			}
			r.RateConstant = arg[1 : len(arg)-2]
			isReactants = false
			continue
		}
		if arg == "+" {
			continue
		}
		if isReactants {
			r.Reactants = append(r.Reactants, arg)
		} else {
			r.Products = append(r.Products, arg)
		}
	}
	if isReactants {
		return r, fmt.Errorf("reactions: %q: missing -<rateConstantName>-> arrow", line)
	}
	return r, nil
}

func parseReactions(lines []string) ([]Reaction, error) {
	out := make([]Reaction, 0, len(lines))
	for _, line := range lines {
		r, err := parseReaction(line)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
