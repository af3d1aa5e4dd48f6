package header

import (
	"fmt"
	"strings"

	"embsurvey/domain/survey"
	"embsurvey/internal/errors"
)

// BuildColumnMap interprets the two header rows. Survey exports only print
// the question text above the first column of a multi-column question, so
// every column inherits the last non-blank question seen to its left.
func BuildColumnMap(questionRow, optionRow []string) ([]survey.ColumnInfo, error) {
	if len(questionRow) != len(optionRow) {
		return nil, errors.InvalidInput(fmt.Sprintf(
			"header rows differ in length: %d questions, %d options", len(questionRow), len(optionRow)))
	}

	columns := make([]survey.ColumnInfo, len(questionRow))
	current := ""
	for i := range questionRow {
		if q := strings.TrimSpace(questionRow[i]); q != "" {
			current = q
		}
		columns[i] = survey.ColumnInfo{
			Index:    i,
			Question: current,
			Option:   strings.TrimSpace(optionRow[i]),
		}
	}
	return columns, nil
}

// QuestionGroups groups columns by their propagated question, in order of
// first appearance. Columns with an empty question are left out.
func QuestionGroups(columns []survey.ColumnInfo) []survey.QuestionGroup {
	index := make(map[string]int)
	var groups []survey.QuestionGroup
	for _, c := range columns {
		if c.Question == "" {
			continue
		}
		pos, ok := index[c.Question]
		if !ok {
			pos = len(groups)
			index[c.Question] = pos
			groups = append(groups, survey.QuestionGroup{Question: c.Question})
		}
		groups[pos].Columns = append(groups[pos].Columns, c.Index)
	}
	return groups
}

// FindQuestion returns the columns of the first group whose question
// contains pattern, ignoring case
func FindQuestion(groups []survey.QuestionGroup, pattern string) []int {
	p := strings.ToLower(pattern)
	for _, g := range groups {
		if strings.Contains(strings.ToLower(g.Question), p) {
			return append([]int(nil), g.Columns...)
		}
	}
	return nil
}

// FindColumns returns every column whose question or option contains pattern
func FindColumns(columns []survey.ColumnInfo, pattern string) []int {
	p := strings.ToLower(pattern)
	var out []int
	for _, c := range columns {
		if strings.Contains(strings.ToLower(c.Question), p) || strings.Contains(strings.ToLower(c.Option), p) {
			out = append(out, c.Index)
		}
	}
	return out
}
