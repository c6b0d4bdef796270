package wire

// extractFramedBody scans a raw datagram for the leading header byte
// and the terminator, discarding bytes before the header and ignoring
// bytes after the terminator (§4.1 "Bytes after the terminator are
// ignored"). It returns the still-escaped bytes from header through
// the byte immediately preceding the terminator, inclusive of the
// header.
func extractFramedBody(datagram []byte) ([]byte, error) {
	start := -1
	for i, b := range datagram {
		if isFramingHeader(b) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrFraming
	}

	end := -1
	for i := start + 1; i < len(datagram); i++ {
		if datagram[i] == terminatorByte {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, ErrFraming
	}

	return datagram[start:end], nil
}

// unescapeBody reverses the escaping of §4.1 over body[1:], leaving the
// header byte (body[0]) untouched since headers are never escaped.
func unescapeBody(body []byte) ([]byte, error) {
	if len(body) == 0 {
		return nil, ErrFraming
	}

	out := make([]byte, 1, len(body))
	out[0] = body[0]

	for i := 1; i < len(body); i++ {
		b := body[i]
		if b != escapeByte {
			out = append(out, b)
			continue
		}
		i++
		if i >= len(body) {
			return nil, ErrEscape
		}
		unescaped := escapeByte + body[i]
		if unescaped < escapeByte {
			return nil, ErrEscape
		}
		out = append(out, unescaped)
	}

	return out, nil
}

// escapeBody escapes every byte of plain[1:] that is >= 0xF0, leaving
// the header byte plain[0] untouched, per "The header byte is never
// escaped".
func escapeBody(plain []byte) []byte {
	if len(plain) == 0 {
		return nil
	}

	out := make([]byte, 1, len(plain)+4)
	out[0] = plain[0]

	for i := 1; i < len(plain); i++ {
		b := plain[i]
		if b >= escapeByte {
			out = append(out, escapeByte, b-escapeByte)
		} else {
			out = append(out, b)
		}
	}

	return out
}
