package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

// storedMessage mirrors the repository's on-disk JSON shape.
type storedMessage struct {
	ID          string    `json:"id"`
	ChatID      string    `json:"chat_id"`
	SenderName  string    `json:"sender_name"`
	Content     string    `json:"content"`
	Attachments []string  `json:"attachments"`
	At          time.Time `json:"at"`
}

func main() {
	_ = godotenv.Load()
	dbPath := flag.String("db", os.Getenv("BADGER_FILEPATH"), "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Chat", "Time", "Sender", "Content", "Files"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				table.Append(toRow(string(item.Key()), v))
				rows++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	color.Green.Printf("%d entries under prefix %q\n", rows, *prefix)
}

func toRow(key string, value []byte) []string {
	var m storedMessage
	if err := json.Unmarshal(value, &m); err != nil || m.ID == "" {
		// Not a message record (user:, chat:, ...), show the raw size.
		return []string{key, "-", "-", "-", fmt.Sprintf("%d bytes", len(value)), "-"}
	}

	content := m.Content
	if len(content) > 48 {
		content = content[:45] + "..."
	}
	return []string{
		shorten(key),
		m.ChatID,
		m.At.Format("15:04:05"),
		m.SenderName,
		content,
		fmt.Sprintf("%d", len(m.Attachments)),
	}
}

// shorten trims the uuid tail of a message key for readability.
func shorten(key string) string {
	if i := strings.LastIndex(key, ":"); i > 0 && len(key)-i > 9 {
		return key[:i+9] + "..."
	}
	return key
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)
	return badger.Open(opts)
}
