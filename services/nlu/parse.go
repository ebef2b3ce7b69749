package nlu

import (
	"regexp"
	"strconv"
	"strings"

	"planmate/models"
)

// The feedback model answers with one command per line inside a
// <commands> block:
//
//	command_type;target;attribute;operator;value_str;value_num_unit
//
// e.g. "modify;MOVIE;start_time;>;;1 час". Empty fields and the literal
// "null" both mean absent.

var commandsBlockRe = regexp.MustCompile(`(?s)<commands>(.*?)</commands>`)

// ParseCommandLines extracts semantic intents from a raw model response.
// Lines that do not have enough fields are skipped.
func ParseCommandLines(raw string) []models.SemanticIntent {
	body := raw
	if m := commandsBlockRe.FindStringSubmatch(raw); m != nil {
		body = m[1]
	}

	var out []models.SemanticIntent
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ";")
		if len(fields) < 4 {
			continue
		}
		for len(fields) < 6 {
			fields = append(fields, "")
		}

		intent := models.SemanticIntent{
			CommandType: cleanField(fields[0]),
			Target:      cleanField(fields[1]),
			Attribute:   models.Attribute(cleanField(fields[2])),
			Operator:    models.Operator(cleanField(fields[3])),
			ValueStr:    cleanField(fields[4]),
		}
		if num, unit, ok := splitNumUnit(cleanField(fields[5])); ok {
			intent.ValueNum = &num
			intent.ValueUnit = unit
		}
		if intent.CommandType == "" {
			continue
		}
		out = append(out, intent)
	}
	return out
}

func cleanField(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "null", "none", "-":
		return ""
	}
	return s
}

var numUnitRe = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s*(.*)$`)

// splitNumUnit reads "1 час", "30 минут" or a bare number.
func splitNumUnit(s string) (float64, string, bool) {
	m := numUnitRe.FindStringSubmatch(s)
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0, "", false
	}
	return n, strings.TrimSpace(m[2]), true
}

var jsonFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// StripFences removes markdown code fences models like to wrap JSON in.
func StripFences(raw string) string {
	if m := jsonFenceRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}
