// Command statekit is the offline compatibility checker: it loads a
// baseline document and an overrides document, runs the schema checks and
// the diff rules, prints every violation, and exits non-zero when the
// documents are incompatible.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/c360/statekit/config"
	"github.com/c360/statekit/validation"
)

func main() {
	baselinePath := flag.String("baseline", "", "Path to the baseline document (JSON or YAML)")
	overridesPath := flag.String("overrides", "", "Path to the overrides document (JSON or YAML)")
	asJSON := flag.Bool("json", false, "Print violations as JSON instead of text")
	flag.Parse()

	if *baselinePath == "" || *overridesPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	violations, err := check(*baselinePath, *overridesPath)
	if err != nil {
		log.Fatalf("Compatibility check failed: %v", err)
	}

	if err := report(os.Stdout, violations, *asJSON); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}

	if len(violations) > 0 {
		os.Exit(1)
	}
}

// check loads both documents and diffs the overrides against the baseline.
// Schema violations in either document surface as a load error; diff rule
// violations come back as the validator's report.
func check(baselinePath, overridesPath string) ([]validation.Violation, error) {
	baseline, err := config.LoadBaseline(baselinePath)
	if err != nil {
		return nil, err
	}

	overrides, err := config.LoadOverrides(overridesPath)
	if err != nil {
		return nil, err
	}

	// The report writer is the single output; drop the validator's own log.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := validation.NewValidator(validation.WithLogger(quiet))
	v.ValidateOverrides(baseline, overrides)
	return v.Violations(), nil
}

func report(w io.Writer, violations []validation.Violation, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(violations)
	}

	if len(violations) == 0 {
		_, err := fmt.Fprintln(w, "Documents are compatible")
		return err
	}

	for _, violation := range violations {
		if _, err := fmt.Fprintf(w, "%s  %s: %s\n",
			violation.Kind, violation.Path, violation.Detail); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d violations\n", len(violations))
	return err
}
