package file_storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lidofinance/rta/storage"
)

func TestFileStorage_Send(t *testing.T) {
	var (
		N        = 10
		req      = require.New(t)
		dir      = t.TempDir()
		testFile = filepath.Join(dir, "rta_test_journal")
	)

	fs, err := NewFileStorage(testFile, filepath.Join(dir, "lock"))
	req.NoError(err)
	defer fs.Close()

	msgs := make([]storage.Message, 0, N)
	for i := 0; i < N; i++ {
		msgs = append(msgs, storage.Message{
			Event:      "minted",
			Data:       json.RawMessage(fmt.Sprintf(`{"amount":"%d"}`, i)),
			SenderAddr: "0x00000000000000000000000000000000000000e0",
			CreatedAt:  time.Date(2024, 6, 1, 0, 0, i, 0, time.UTC),
		})
	}
	req.NoError(fs.Send(msgs...))

	for i, m := range msgs {
		req.Equal(uint64(i), m.Offset)
		req.NotEmpty(m.ID)
	}

	stored, err := fs.GetMessages(0)
	req.NoError(err)
	req.Equal(msgs, stored)

	stored, err = fs.GetMessages(7)
	req.NoError(err)
	req.Equal(msgs[7:], stored)
}

func TestFileStorage_OffsetsSurviveReopen(t *testing.T) {
	var (
		req      = require.New(t)
		dir      = t.TempDir()
		testFile = filepath.Join(dir, "rta_test_journal")
		lockFile = filepath.Join(dir, "lock")
	)

	fs, err := NewFileStorage(testFile, lockFile)
	req.NoError(err)
	req.NoError(fs.Send(storage.Message{Event: "first", Data: json.RawMessage(`{}`)}))
	req.NoError(fs.Close())

	fs, err = NewFileStorage(testFile, lockFile)
	req.NoError(err)
	defer fs.Close()

	second := []storage.Message{{Event: "second", Data: json.RawMessage(`{}`)}}
	req.NoError(fs.Send(second...))
	req.Equal(uint64(1), second[0].Offset)

	stored, err := fs.GetMessages(0)
	req.NoError(err)
	req.Len(stored, 2)
	req.Equal("first", stored[0].Event)
	req.Equal("second", stored[1].Event)
}
