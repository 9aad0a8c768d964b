package wal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
)

// FileMode 帳本資料只給擁有者讀寫
const FileMode fs.FileMode = 0o600

// WAL 以 JSON Lines 格式追加寫入的 Write-Ahead Log
type WAL struct {
	file *os.File
	mu   sync.Mutex
}

// NewWAL 開啟或建立 WAL 檔案，寫入一律追加在檔尾
func NewWAL(path string) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, FileMode)
	if err != nil {
		return nil, fmt.Errorf("open wal %s: %w", path, err)
	}
	return &WAL{file: file}, nil
}

// Write 寫入一筆資料並刷入硬碟
// 回傳 nil 代表這筆資料已經落地
func (w *WAL) Write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode wal record: %w", err)
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.Write(data); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close 關閉檔案
func (w *WAL) Close() error {
	return w.file.Close()
}

// ReadAll 依序讀取所有紀錄
// 最後一筆若因寫入中途當機而不完整，會被截掉，之後的寫入接在最後一筆完整紀錄之後
//
// 參數:
//
//	callback: 接收一筆原始 JSON，回傳錯誤會中止讀取
//
// 回傳:
//
//	error: 讀檔失敗、中間有損毀的紀錄、或 callback 的錯誤
func (w *WAL) ReadAll(callback func(jsonRaw []byte) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	decoder := json.NewDecoder(w.file)
	for {
		var raw json.RawMessage
		err := decoder.Decode(&raw)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return w.file.Truncate(decoder.InputOffset())
		}
		if err != nil {
			return err
		}
		if err := callback(raw); err != nil {
			return err
		}
	}
}
