package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/Tropical8818/iProTalk/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// Offline listing of stored messages. Safe to run next to a live relay, the
// database is opened read-only.
func main() {
	dbPath := flag.String("db", "./data/messages", "Path to badger DB")
	limit := flag.Int("limit", 100, "Maximum number of rows")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Sender", "Group", "Recipient", "Blob bytes"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(repositories.MessagePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix) && rows < *limit; it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))
			err := item.Value(func(v []byte) error {
				msg, err := repositories.DecodeMessage(v)
				if err != nil {
					// Keep listing, one bad record should not hide the others
					fmt.Printf("Error decoding key %s: %v\n", key, err)
					return nil
				}
				table.Append([]string{
					key,
					msg.SenderID,
					lo.FromPtrOr(msg.GroupID, "-"),
					lo.FromPtrOr(msg.RecipientID, "-"),
					strconv.Itoa(len(msg.EncryptedBlob) * 3 / 4),
				})
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
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil && strings.Contains(err.Error(), "Log truncate required") {
		return nil, fmt.Errorf("%w: stop the relay first so badger can replay its log", err)
	}
	return db, err
}
