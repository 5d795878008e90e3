package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// 每帧为一个 JSON 对象加一个换行分隔符
// JSON 字符串转义规则保证载荷内不会出现裸换行字节
const FRAME_DELIM = '\n'

// 单次从底层连接读取的块大小
const READ_CHUNK_SIZE = 4096

var ErrMalformedFrame = errors.New("malformed frame")

// Encode 将一条出站消息编码为一个完整帧
func Encode(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}

	return append(data, FRAME_DELIM), nil
}

// Decode 解析一个帧的载荷部分（不含分隔符）
func Decode(frame []byte) (Request, error) {
	var req Request

	if err := json.Unmarshal(frame, &req); err != nil {
		return Request{}, ErrMalformedFrame
	}
	if req.Type == "" {
		return Request{}, ErrMalformedFrame
	}

	return req, nil
}

// FrameReader 从字节流中按分隔符切出完整帧
// 读到的半帧保留在缓冲区中，等待后续数据补全
type FrameReader struct {
	r   io.Reader
	buf []byte
}

func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{
		r:   r,
		buf: make([]byte, 0, READ_CHUNK_SIZE),
	}
}

// Next 阻塞直到取得一个完整帧或底层读取失败
// 返回的切片在下一次调用前有效
func (fr *FrameReader) Next() ([]byte, error) {
	for {
		if idx := bytes.IndexByte(fr.buf, FRAME_DELIM); idx >= 0 {
			frame := fr.buf[:idx]
			fr.buf = fr.buf[idx+1:]
			return frame, nil
		}

		chunk := make([]byte, READ_CHUNK_SIZE)

		n, err := fr.r.Read(chunk)
		if n > 0 {
			fr.buf = append(fr.buf, chunk[:n]...)
			continue
		}
		if err != nil {
			return nil, err
		}
	}
}
