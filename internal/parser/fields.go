package parser

import (
	"regexp"
	"strings"

	"github.com/dcurrey/dupReport/internal/models"
)

type fieldKind int

const (
	numberField fieldKind = iota // Name: 123
	wordField                    // Name: Word
	lineField                    // Name: rest of line
	blockField                   // Name: [ ... ] spanning lines
	tailField                    // Name: everything to the end of the body
)

type field struct {
	label string
	kind  fieldKind
	re    *regexp.Regexp
}

func newField(label string, kind fieldKind) field {
	var expr string
	switch kind {
	case numberField:
		expr = label + `: \d+`
	case wordField:
		expr = label + `: \w+`
	case lineField:
		expr = label + `: .*`
	case blockField:
		expr = `(?ms)` + label + `: \[.*^\]`
	case tailField:
		expr = `(?ms)` + label + `: .*`
	}
	return field{label: label, kind: kind, re: regexp.MustCompile(expr)}
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// search returns the field's value in body, or the kind's default when
// the field is absent.
func (f field) search(body string) string {
	match := f.re.FindString(body)
	if match == "" {
		if f.kind == numberField {
			return "0"
		}
		return ""
	}

	if f.kind == blockField || f.kind == tailField {
		match = whitespaceRun.ReplaceAllString(match, " ")
		return strings.ReplaceAll(match, `"`, `'`)
	}

	words := strings.Fields(match)
	if len(words) < 2 {
		return ""
	}
	return strings.Join(words[1:], " ")
}

type numberTarget struct {
	field
	target func(e *models.Email) *int64
}

type stringTarget struct {
	field
	target func(e *models.Email) *string
}

var numberFields = []numberTarget{
	{newField("DeletedFiles", numberField), func(e *models.Email) *int64 { return &e.DeletedFiles }},
	{newField("DeletedFolders", numberField), func(e *models.Email) *int64 { return &e.DeletedFolders }},
	{newField("ModifiedFiles", numberField), func(e *models.Email) *int64 { return &e.ModifiedFiles }},
	{newField("ExaminedFiles", numberField), func(e *models.Email) *int64 { return &e.ExaminedFiles }},
	{newField("OpenedFiles", numberField), func(e *models.Email) *int64 { return &e.OpenedFiles }},
	{newField("AddedFiles", numberField), func(e *models.Email) *int64 { return &e.AddedFiles }},
	{newField("SizeOfModifiedFiles", numberField), func(e *models.Email) *int64 { return &e.SizeOfModifiedFiles }},
	{newField("SizeOfAddedFiles", numberField), func(e *models.Email) *int64 { return &e.SizeOfAddedFiles }},
	{newField("SizeOfExaminedFiles", numberField), func(e *models.Email) *int64 { return &e.SizeOfExaminedFiles }},
	{newField("SizeOfOpenedFiles", numberField), func(e *models.Email) *int64 { return &e.SizeOfOpenedFiles }},
	{newField("NotProcessedFiles", numberField), func(e *models.Email) *int64 { return &e.NotProcessedFiles }},
	{newField("AddedFolders", numberField), func(e *models.Email) *int64 { return &e.AddedFolders }},
	{newField("TooLargeFiles", numberField), func(e *models.Email) *int64 { return &e.TooLargeFiles }},
	{newField("FilesWithError", numberField), func(e *models.Email) *int64 { return &e.FilesWithError }},
	{newField("ModifiedFolders", numberField), func(e *models.Email) *int64 { return &e.ModifiedFolders }},
	{newField("ModifiedSymlinks", numberField), func(e *models.Email) *int64 { return &e.ModifiedSymlinks }},
	{newField("AddedSymlinks", numberField), func(e *models.Email) *int64 { return &e.AddedSymlinks }},
	{newField("DeletedSymlinks", numberField), func(e *models.Email) *int64 { return &e.DeletedSymlinks }},
}

var stringFields = []stringTarget{
	{newField("PartialBackup", wordField), func(e *models.Email) *string { return &e.PartialBackup }},
	{newField("Dryrun", wordField), func(e *models.Email) *string { return &e.DryRun }},
	{newField("MainOperation", wordField), func(e *models.Email) *string { return &e.MainOperation }},
	{newField("ParsedResult", wordField), func(e *models.Email) *string { return &e.ParsedResult }},
	{newField("VerboseOutput", wordField), func(e *models.Email) *string { return &e.VerboseOutput }},
	{newField("VerboseErrors", wordField), func(e *models.Email) *string { return &e.VerboseErrors }},
	{newField("Duration", lineField), func(e *models.Email) *string { return &e.Duration }},
	{newField("Messages", blockField), func(e *models.Email) *string { return &e.Messages }},
	{newField("Warnings", blockField), func(e *models.Email) *string { return &e.Warnings }},
	{newField("Errors", blockField), func(e *models.Email) *string { return &e.Errors }},
	{newField("Failed", lineField), func(e *models.Email) *string { return &e.FailedMsg }},
}

// Fields read by the parser but not stored verbatim.
var (
	endTimeField   = newField("EndTime", lineField)
	beginTimeField = newField("BeginTime", lineField)
	detailsField   = newField("Details", tailField)
)
