// Command spell is the SpellLang interpreter.
//
// Usage:
//
//	spell script.spell              execute a script
//	spell run script.spell          execute a script
//	spell run --watch script.spell  re-run the script on every change
//	spell check script.spell ...    parse without executing
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sambeau/spelllang/pkg/spelllang/ast"
	serrors "github.com/sambeau/spelllang/pkg/spelllang/errors"
	"github.com/sambeau/spelllang/pkg/spelllang/evaluator"
	"github.com/sambeau/spelllang/pkg/spelllang/lexer"
	"github.com/sambeau/spelllang/pkg/spelllang/parser"
)

// Version is set at compile time via -ldflags
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "spell <file>",
	Short:         "SpellLang interpreter",
	Long:          "spell runs SpellLang scripts: a lexer, parser and tree-walking evaluator\nfor the Hogwarts-flavoured scripting language.",
	SilenceErrors: true,
	Args:          cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Usage text is for argument mistakes, which fail before RunE
		cmd.SilenceUsage = true
		os.Exit(runFile(args[0]))
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Execute a SpellLang script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		watch, _ := cmd.Flags().GetBool("watch")
		if watch {
			return watchAndRun(args[0])
		}
		os.Exit(runFile(args[0]))
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Check syntax without executing",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		os.Exit(checkFiles(args))
		return nil
	},
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("spell version {{.Version}}\n")

	runCmd.Flags().Bool("watch", false, "Re-run the script whenever it changes")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(2)
	}
}

// runFile loads, parses and executes one script, returning the process exit
// code
func runFile(filename string) int {
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file '%s': %v\n", filename, err)
		return 1
	}
	source := string(content)

	program, serr := compile(source, filename)
	if serr != nil {
		printSpellError(source, serr)
		return 1
	}

	if serr := evaluator.Run(program, filename, nil); serr != nil {
		printSpellError(source, serr)
		return 1
	}
	return 0
}

// compile runs the lexer and parser, returning the first structured error
func compile(source, filename string) (*ast.Program, *serrors.SpellError) {
	tokens, lexErr := lexer.NewWithFilename(source, filename).Tokenize()
	if lexErr != nil {
		return nil, lexErr
	}

	p := parser.New(tokens)
	prog := p.ParseProgram()
	if errs := p.StructuredErrors(); len(errs) != 0 {
		return nil, errs[0].WithFile(filename)
	}
	return prog, nil
}

// checkFiles parses files without executing them; any syntax error makes the
// whole check fail
func checkFiles(files []string) int {
	code := 0
	for _, filename := range files {
		content, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading file '%s': %v\n", filename, err)
			code = 1
			continue
		}
		if _, serr := compile(string(content), filename); serr != nil {
			printSpellError(string(content), serr)
			code = 1
		}
	}
	return code
}

// printSpellError prints an error with its source context and caret pointer
func printSpellError(source string, err *serrors.SpellError) {
	fmt.Fprintln(os.Stderr, err.PrettyString())
	if err.Line > 0 {
		printSourceContext(strings.Split(source, "\n"), err.Line, err.Column)
	}
}

// printSourceContext prints the offending source line and a pointer to the
// error position
func printSourceContext(lines []string, lineNum, colNum int) {
	if lineNum <= 0 || lineNum > len(lines) {
		return
	}

	sourceLine := lines[lineNum-1]

	// Account for leading whitespace we strip from the displayed line
	trimCount := 0
	for i := 0; i < len(sourceLine); i++ {
		if sourceLine[i] == ' ' {
			trimCount++
		} else if sourceLine[i] == '\t' {
			trimCount += 8
		} else {
			break
		}
	}

	trimmedLine := strings.TrimLeft(sourceLine, " \t")
	fmt.Fprintf(os.Stderr, "    %s\n", trimmedLine)

	if colNum > 0 {
		// Tabs count as 8 visual columns
		visualCol := 0
		for i := 0; i < colNum-1 && i < len(sourceLine); i++ {
			if sourceLine[i] == '\t' {
				visualCol += 8
			} else {
				visualCol++
			}
		}
		adjustedCol := max(visualCol-trimCount, 0)
		fmt.Fprintf(os.Stderr, "    %s^\n", strings.Repeat(" ", adjustedCol))
	}
}
