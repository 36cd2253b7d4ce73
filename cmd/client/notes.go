package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/atinyakov/NoteKeeper/internal/client"
	"github.com/atinyakov/NoteKeeper/internal/models"
)

var (
	addInput client.NoteInput
	addLat   float64
	addLon   float64
	addPlace string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Upload a note with optional photos and recordings",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c, _ := authedClient()

		if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
			addInput.Location = &models.Location{Latitude: addLat, Longitude: addLon, Name: addPlace}
		}

		note, err := c.AddNote(context.Background(), addInput)
		if err != nil {
			fatal("Error adding note", err)
		}
		if jsonOutput {
			printJSON(note)
			return
		}
		fmt.Printf("Saved note %s\n", note.ID)
		for _, m := range note.Media {
			fmt.Printf("  %s %s\n", m.Type, m.URL)
		}
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all notes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c, _ := authedClient()
		notes, err := c.ListNotes(context.Background())
		if err != nil {
			fatal("Error listing notes", err)
		}
		printNotes(notes)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find notes whose title or text contains the query",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c, _ := authedClient()
		notes, err := c.Search(context.Background(), strings.Join(args, " "))
		if err != nil {
			fatal("Error searching notes", err)
		}
		printNotes(notes)
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Show how often each tag is used",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c, _ := authedClient()
		stats, err := c.TagStats(context.Background())
		if err != nil {
			fatal("Error fetching tag stats", err)
		}
		if jsonOutput {
			printJSON(stats)
			return
		}
		tags := make([]string, 0, len(stats))
		for t := range stats {
			tags = append(tags, t)
		}
		sort.Slice(tags, func(i, j int) bool {
			if stats[tags[i]] != stats[tags[j]] {
				return stats[tags[i]] > stats[tags[j]]
			}
			return tags[i] < tags[j]
		})
		for _, t := range tags {
			fmt.Printf("%4d  %s\n", stats[t], t)
		}
	},
}

func printNotes(notes []models.Note) {
	if jsonOutput {
		printJSON(notes)
		return
	}
	if len(notes) == 0 {
		fmt.Println("No notes")
		return
	}
	for _, n := range notes {
		title := n.Title
		if title == "" {
			title = "(untitled)"
		}
		ts := time.UnixMilli(n.Timestamp).Format("2006-01-02 15:04")
		fmt.Printf("%s  %s  %s", n.ID, ts, title)
		if len(n.Tags) > 0 {
			fmt.Printf("  [%s]", strings.Join(n.Tags, ", "))
		}
		if len(n.Media) > 0 {
			fmt.Printf("  +%d media", len(n.Media))
		}
		fmt.Println()
	}
}

func init() {
	f := addCmd.Flags()
	f.StringVar(&addInput.ID, "id", "", "note id (server assigns one when empty)")
	f.StringVar(&addInput.Title, "title", "", "note title")
	f.StringVar(&addInput.Text, "text", "", "note body")
	f.StringArrayVar(&addInput.Tags, "tag", nil, "tag, repeatable")
	f.StringArrayVar(&addInput.Images, "image", nil, "image file to attach, repeatable")
	f.StringArrayVar(&addInput.Audio, "audio", nil, "audio file to attach, repeatable")
	f.StringArrayVar(&addInput.Transcripts, "transcript", nil, "transcript for the audio files, repeatable")
	f.Float64Var(&addLat, "lat", 0, "latitude")
	f.Float64Var(&addLon, "lon", 0, "longitude")
	f.StringVar(&addPlace, "place", "", "place name for the location")

	rootCmd.AddCommand(addCmd, listCmd, searchCmd, tagsCmd)
}
