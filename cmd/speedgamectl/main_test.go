package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runApp(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	if err := app.Run(append([]string{"speedgamectl"}, args...)); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out.String()
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "speedgame.db")

	sheet := filepath.Join(dir, "questions.csv")
	data := "theme,difficulty,question,o1,o2,o3,o4,response\n" +
		"Science,Facile,H2O ?,Eau,Sel,Air,Feu,Eau\n" +
		"Science,Difficile,Au ?,Or,Argent,Fer,Cuivre,Or\n"
	if err := os.WriteFile(sheet, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := runApp(t, "--db", db, "migrate"); got != "database at version 2\n" {
		t.Errorf("migrate output = %q", got)
	}
	if got := runApp(t, "--db", db, "import-questions", "--file", sheet); got != "read 2 questions, inserted 2\n" {
		t.Errorf("import output = %q", got)
	}
	if got := runApp(t, "--db", db, "import-questions", "-f", sheet); got != "read 2 questions, inserted 0\n" {
		t.Errorf("reimport output = %q", got)
	}
	if got := runApp(t, "--db", db, "seed-themes", "Cinema", "Sport"); got != "seeded 2 themes\n" {
		t.Errorf("seed output = %q", got)
	}
	if got := runApp(t, "--db", db, "seed-themes", "Musique"); !strings.Contains(got, "nothing seeded") {
		t.Errorf("second seed output = %q", got)
	}
	if got := runApp(t, "--db", db, "parties"); !strings.HasPrefix(got, "ID") {
		t.Errorf("parties output = %q", got)
	}
}

func TestSeedThemesRequiresNames(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"speedgamectl", "--db", filepath.Join(t.TempDir(), "x.db"), "seed-themes"})
	if err == nil {
		t.Fatal("expected an error")
	}
}
