package cache

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// msgpack по умолчанию восстанавливает time.Time в локальной зоне сервера.
// Кэш отдает время в UTC, независимо от TZ процесса.
const timeExtID int8 = -1

func init() {
	msgpack.RegisterExtDecoder(timeExtID, time.Time{}, decodeUTCTime)
}

func decodeUTCTime(d *msgpack.Decoder, v reflect.Value, extLen int) error {
	b := make([]byte, extLen)
	if err := d.ReadFull(b); err != nil {
		return err
	}

	var tm time.Time
	switch len(b) {
	case 4:
		tm = time.Unix(int64(binary.BigEndian.Uint32(b)), 0)
	case 8:
		data := binary.BigEndian.Uint64(b)
		tm = time.Unix(int64(data&0x00000003ffffffff), int64(data>>34))
	case 12:
		nsec := binary.BigEndian.Uint32(b)
		tm = time.Unix(int64(binary.BigEndian.Uint64(b[4:])), int64(nsec))
	default:
		return fmt.Errorf("cache: invalid time ext len=%d", extLen)
	}

	v.Set(reflect.ValueOf(tm.UTC()))
	return nil
}

func encode(value any) ([]byte, error) {
	return msgpack.Marshal(value)
}

func decode[T any](raw []byte) (T, error) {
	var v T
	err := msgpack.Unmarshal(raw, &v)
	return v, err
}
