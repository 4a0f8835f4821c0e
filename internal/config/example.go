package config

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"

	"github.com/mrclmr/n2a/internal/note"
)

//go:embed example.yaml.tmpl
var exampleYamlTmpl string

func Example() (string, error) {
	parse, err := template.New("").
		Delims("[[", "]]").
		Funcs(template.FuncMap{"noteNames": func() string { return strings.Join(note.Names(), " ") }}).
		Parse(exampleYamlTmpl)
	if err != nil {
		return "", err
	}

	buf := &bytes.Buffer{}
	err = parse.Execute(buf, nil)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
