package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verify-ci/verify/embedded"
	"github.com/verify-ci/verify/internal/runner"
)

var initForce bool

const (
	gitignoreEntry    = "**/.verify/"
	gitattributesLine = "verify.lock merge=ours"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter verify.yaml",
	Long: `Write a template verify.yaml at --config's path and append
"**/.verify/" to .gitignore and "verify.lock merge=ours" to
.gitattributes, creating either file if it doesn't exist.`,
	Run: func(cmd *cobra.Command, args []string) {
		path := GetConfigFile()
		if _, err := os.Stat(path); err == nil && !initForce {
			fatalf("%s already exists (use --force to overwrite)", path)
		}

		if err := os.WriteFile(path, embedded.Template, 0o644); err != nil {
			fatalf("write %s: %v", path, err)
		}

		root := filepath.Dir(mustAbs(path))
		if err := appendLineIfMissing(filepath.Join(root, ".gitignore"), gitignoreEntry); err != nil {
			fatalf("update .gitignore: %v", err)
		}
		if err := appendLineIfMissing(filepath.Join(root, ".gitattributes"), gitattributesLine); err != nil {
			fatalf("update .gitattributes: %v", err)
		}

		fmt.Println("wrote", path)
		os.Exit(runner.ExitSuccess)
	},
}

func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		fatalf("resolve path %s: %v", path, err)
	}
	return abs
}

// appendLineIfMissing adds line to the end of path (creating it if
// necessary) unless it's already present verbatim on its own line.
func appendLineIfMissing(path, line string) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == line {
			return nil
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return err
		}
	}
	_, err = f.WriteString(line + "\n")
	return err
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing verify.yaml")
}
