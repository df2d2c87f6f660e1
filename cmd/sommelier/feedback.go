package main

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/sommelier/core"
)

// importChunkSize is the number of records written per transaction by
// feedback import.
const importChunkSize = 1000

func feedbackCommand() *cli.Command {
	return &cli.Command{
		Name:  "feedback",
		Usage: "Record and inspect user feedback",
		Subcommands: []*cli.Command{
			{
				Name:   "add",
				Usage:  "Record one like or dislike",
				Action: feedbackAddCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "wine",
						Aliases:  []string{"w"},
						Usage:    "Wine identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Feedback kind (like, dislike)",
						Value: string(core.FeedbackLike),
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List feedback records, newest first",
				Action: feedbackListCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of records; 0 lists everything",
						Value: 50,
					},
					&cli.TimestampFlag{
						Name:   "since",
						Usage:  "Only records at or after this time (RFC 3339)",
						Layout: time.RFC3339,
					},
					&cli.TimestampFlag{
						Name:   "until",
						Usage:  "Only records at or before this time (RFC 3339)",
						Layout: time.RFC3339,
					},
				},
			},
			{
				Name:   "aggregate",
				Usage:  "Print like and dislike totals per wine",
				Action: feedbackAggregateCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rebuild",
						Usage: "Recount the totals from the stored records first",
					},
				},
			},
			{
				Name:   "import",
				Usage:  "Import feedback records from a JSON array",
				Action: feedbackImportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the JSON file",
						Required: true,
					},
				},
			},
		},
	}
}

func feedbackAddCommand(c *cli.Context) error {
	rec, _, err := openRecommender(c)
	if err != nil {
		return err
	}
	defer rec.Close()

	kind := core.FeedbackKind(c.String("kind"))
	if err := core.ValidateFeedbackKind(kind); err != nil {
		return err
	}

	stored, err := rec.FeedbackRepository().AddFeedback(c.Context, &core.Feedback{
		UserId: c.String("user"),
		WineId: c.String("wine"),
		Kind:   kind,
	})
	if err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Recorded feedback %d\n", stored[0].Id)
	return nil
}

func feedbackListCommand(c *cli.Context) error {
	rec, _, err := openRecommender(c)
	if err != nil {
		return err
	}
	defer rec.Close()

	repo := rec.FeedbackRepository()
	var records []*core.Feedback
	if c.IsSet("since") || c.IsSet("until") {
		start, end := time.Time{}, time.Now().UTC()
		if ts := c.Timestamp("since"); ts != nil {
			start = *ts
		}
		if ts := c.Timestamp("until"); ts != nil {
			end = *ts
		}
		records, err = repo.GetFeedbackByDateRange(c.Context, start, end)
	} else {
		records, err = repo.ListFeedback(c.Context, c.Int("limit"))
	}
	if err != nil {
		return fmt.Errorf("failed to list feedback: %w", err)
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func feedbackAggregateCommand(c *cli.Context) error {
	rec, _, err := openRecommender(c)
	if err != nil {
		return err
	}
	defer rec.Close()

	repo := rec.FeedbackRepository()
	if c.Bool("rebuild") {
		n, err := repo.RebuildAggregates(c.Context)
		if err != nil {
			return fmt.Errorf("failed to rebuild aggregates: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Recounted %d records\n", n)
	}

	rows, err := repo.AggregateList(c.Context)
	if err != nil {
		return fmt.Errorf("failed to aggregate feedback: %w", err)
	}
	for _, row := range rows {
		fmt.Fprintf(c.App.Writer, "%s\tlikes=%d\tdislikes=%d\tscore=%d\n",
			row.WineId, row.Likes, row.Dislikes, row.Score())
	}
	return nil
}

func feedbackImportCommand(c *cli.Context) error {
	data, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}
	var records []*core.Feedback
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to decode import file: %w", err)
	}

	rec, _, err := openRecommender(c)
	if err != nil {
		return err
	}
	defer rec.Close()

	imported := 0
	for start := 0; start < len(records); start += importChunkSize {
		end := min(start+importChunkSize, len(records))
		chunk := records[start:end]
		if _, err := rec.FeedbackRepository().AddFeedback(c.Context, chunk...); err != nil {
			return fmt.Errorf("import stopped after %d records: %w", imported, err)
		}
		imported += len(chunk)
		fmt.Fprintf(os.Stderr, "Imported %d/%d\n", imported, len(records))
	}
	fmt.Fprintf(c.App.Writer, "Imported %d records\n", imported)
	return nil
}
