// Command speedgamectl administers the SpeedGame database: migrations,
// question imports and theme seeding.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/playperu/speedgame/internal/database"
	"github.com/playperu/speedgame/internal/migrations"
	"github.com/playperu/speedgame/internal/seed"
	"github.com/playperu/speedgame/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_ = godotenv.Load()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "speedgamectl",
		Usage: "SpeedGame database administration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Usage:   "path to the SQLite database",
				Value:   "data/speedgame.db",
				EnvVars: []string{"DB_PATH"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "apply pending migrations",
				Action: withDB(func(c *cli.Context, db *sql.DB) error {
					if err := migrations.Run(c.Context, db); err != nil {
						return err
					}
					v, err := migrations.Version(c.Context, db)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "database at version %d\n", v)
					return nil
				}),
			},
			{
				Name:  "import-questions",
				Usage: "import a CSV question sheet",
				Flags: []cli.Flag{
					&cli.PathFlag{Name: "file", Aliases: []string{"f"}, Required: true},
				},
				Action: withDB(func(c *cli.Context, db *sql.DB) error {
					f, err := os.Open(c.Path("file"))
					if err != nil {
						return err
					}
					defer f.Close()

					questions, err := seed.ParseQuestions(f)
					if err != nil {
						return err
					}
					n, err := store.New(db).InsertQuestions(c.Context, questions)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "read %d questions, inserted %d\n", len(questions), n)
					return nil
				}),
			},
			{
				Name:      "seed-themes",
				Usage:     "fill an empty theme catalog",
				ArgsUsage: "NAME...",
				Action: withDB(func(c *cli.Context, db *sql.DB) error {
					if c.NArg() == 0 {
						return fmt.Errorf("at least one theme name is required")
					}
					n, err := store.New(db).SeedThemes(c.Context, c.Args().Slice())
					if err != nil {
						return err
					}
					if n == 0 {
						fmt.Fprintln(c.App.Writer, "catalog already has themes, nothing seeded")
						return nil
					}
					fmt.Fprintf(c.App.Writer, "seeded %d themes\n", n)
					return nil
				}),
			},
			{
				Name:  "parties",
				Usage: "list stored parties",
				Action: withDB(func(c *cli.Context, db *sql.DB) error {
					parties, err := store.New(db).ListParties(c.Context)
					if err != nil {
						return err
					}
					tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tNAME\tTEAMS")
					for _, p := range parties {
						fmt.Fprintf(tw, "%s\t%s\t%d\n", p.ID, p.Name, len(p.Teams))
					}
					return tw.Flush()
				}),
			},
		},
	}
}

// withDB opens the database named by the global --db flag and migrates it
// before running fn.
func withDB(fn func(c *cli.Context, db *sql.DB) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		db, err := database.Open(c.Context, c.String("db"))
		if err != nil {
			return err
		}
		defer db.Close()

		if err := migrations.Run(c.Context, db); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		return fn(c, db)
	}
}
