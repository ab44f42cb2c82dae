// cmd/intakectl/main.go
//
// intakectl – submit or check an intake answer file from the command line.
//
// Usage
// -----
//
//	intakectl -file answers.yaml [-endpoint URL] [-origin URL] [-validate-only]
//
// The file holds one object of field → answer in YAML or JSON (JSON is a
// subset of YAML).  Answers are replayed through the same form controller
// the browser flow uses: scalar fields as FieldChanged events, list fields
// as one ChoiceToggled event per option, so conditional cleanup behaves
// exactly as it does on the page.
//
// Exit status is 0 on success, 1 when the form is rejected, and 2 on usage
// or transport errors.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ShadyEe10/findyourlightpsychiatry/internal/formctl"
	"github.com/ShadyEe10/findyourlightpsychiatry/internal/intake"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("intakectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		file         = fs.String("file", "", "answer file (YAML or JSON)")
		endpoint     = fs.String("endpoint", "http://localhost:8080/api/contact", "submission endpoint")
		origin       = fs.String("origin", "", "Origin header to send")
		vocab        = fs.String("vocabulary", "", "vocabulary override file")
		validateOnly = fs.Bool("validate-only", false, "check locally and do not send")
		timeout      = fs.Duration("timeout", 15*time.Second, "overall deadline")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *file == "" {
		fmt.Fprintln(stderr, "intakectl: -file is required")
		fs.Usage()
		return 2
	}

	schema := intake.DefaultSchema()
	if *vocab != "" {
		v, err := intake.LoadVocabulary(*vocab)
		if err != nil {
			fmt.Fprintf(stderr, "intakectl: %v\n", err)
			return 2
		}
		schema = intake.NewSchema(v)
	}

	answers, err := readAnswers(*file)
	if err != nil {
		fmt.Fprintf(stderr, "intakectl: %v\n", err)
		return 2
	}

	ctl := formctl.New(schema, *endpoint, formctl.WithOrigin(*origin))
	state := replay(ctl, schema, answers)

	if *validateOnly {
		checked, ok := ctl.Validate(state)
		if !ok {
			printErrors(stdout, checked.Message, checked.Errors)
			return 1
		}
		fmt.Fprintln(stdout, "valid")
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	final, out := ctl.Submit(ctx, state)
	switch {
	case out.OK:
		fmt.Fprintln(stdout, out.Message)
		return 0
	case out.Err != nil:
		fmt.Fprintf(stderr, "intakectl: %s (%v)\n", out.Message, out.Err)
		return 2
	default:
		printErrors(stdout, final.Message, final.Errors)
		return 1
	}
}

// readAnswers decodes path into a field map.
func readAnswers(path string) (intake.Raw, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%s: empty answer file", path)
	}
	return intake.Raw(m), nil
}

// replay feeds answers into a fresh state in schema order, so a trigger is
// always set before the fields it reveals.
func replay(ctl *formctl.Controller, schema *intake.Schema, answers intake.Raw) formctl.State {
	s := ctl.Initial()
	for _, f := range schema.Fields {
		v, ok := answers[f.Name]
		if !ok {
			continue
		}
		if f.Kind == intake.KindMulti {
			for _, opt := range answers.List(f.Name) {
				s = ctl.Reduce(s, formctl.ChoiceToggled{Field: f.Name, Option: opt, Checked: true})
			}
			continue
		}
		if _, isStr := v.(string); !isStr && f.Kind != intake.KindConsent {
			v = fmt.Sprint(v) // unquoted YAML numbers such as phone digits
		}
		s = ctl.Reduce(s, formctl.FieldChanged{Field: f.Name, Value: v})
	}
	return s
}

func printErrors(w io.Writer, banner string, errs map[string]string) {
	if banner != "" {
		fmt.Fprintln(w, banner)
	}
	names := make([]string, 0, len(errs))
	for k := range errs {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(w, "  %s: %s\n", k, errs[k])
	}
}
