package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	cloudtab_errors "cloudtab/pkg/errors"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// IVSize is the length of the initialization vector written as the first
	// bytes of every ciphertext.
	IVSize = aes.BlockSize

	// chunkSize is the streaming unit. Must be a multiple of the AES block
	// size so full chunks can be ciphered in place.
	chunkSize = 64 * 1024
)

// Encrypt reads plaintext from src and writes the self-describing ciphertext
// to dst: a fresh random 16-byte IV followed by the AES-256-CBC body with
// PKCS#7 padding. A zero-byte plaintext still produces one full padding
// block. The source is never buffered whole; data moves through in chunks.
// Returns the number of bytes written to dst, IV included.
func Encrypt(dst io.Writer, src io.Reader, key []byte) (int64, error) {
	block, err := newBlock(key)
	if err != nil {
		return 0, err
	}

	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return 0, fmt.Errorf("generate iv: %w", err)
	}

	var written int64
	n, err := dst.Write(iv)
	written += int64(n)
	if err != nil {
		return written, fmt.Errorf("write iv: %w", err)
	}

	enc := cipher.NewCBCEncrypter(block, iv)
	buf := make([]byte, chunkSize)
	for {
		n, rerr := io.ReadFull(src, buf)
		if rerr == nil {
			enc.CryptBlocks(buf, buf)
			m, werr := dst.Write(buf)
			written += int64(m)
			if werr != nil {
				return written, fmt.Errorf("write ciphertext: %w", werr)
			}
			continue
		}
		if rerr != io.EOF && rerr != io.ErrUnexpectedEOF {
			return written, fmt.Errorf("read plaintext: %w", rerr)
		}

		// Final short chunk. Cipher the whole blocks, then pad the tail.
		full := n - n%aes.BlockSize
		if full > 0 {
			enc.CryptBlocks(buf[:full], buf[:full])
			m, werr := dst.Write(buf[:full])
			written += int64(m)
			if werr != nil {
				return written, fmt.Errorf("write ciphertext: %w", werr)
			}
		}
		final := pkcs7Pad(buf[full:n])
		enc.CryptBlocks(final, final)
		m, werr := dst.Write(final)
		written += int64(m)
		if werr != nil {
			return written, fmt.Errorf("write ciphertext: %w", werr)
		}
		return written, nil
	}
}

// Decrypt reads a ciphertext produced by Encrypt from src and streams the
// plaintext to dst. Fails with ErrCorruptCiphertext if the source is shorter
// than one IV, the body is not block-aligned, or padding validation fails.
// Returns the number of plaintext bytes written.
func Decrypt(dst io.Writer, src io.Reader, key []byte) (int64, error) {
	block, err := newBlock(key)
	if err != nil {
		return 0, err
	}

	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(src, iv); err != nil {
		return 0, fmt.Errorf("%w: missing iv", cloudtab_errors.ErrCorruptCiphertext)
	}

	dec := cipher.NewCBCDecrypter(block, iv)

	var written int64
	emit := func(p []byte) error {
		if len(p) == 0 {
			return nil
		}
		m, werr := dst.Write(p)
		written += int64(m)
		if werr != nil {
			return fmt.Errorf("write plaintext: %w", werr)
		}
		return nil
	}

	// The last decrypted block is held back until EOF so its padding can be
	// stripped before it reaches the sink.
	held := make([]byte, 0, aes.BlockSize)
	buf := make([]byte, chunkSize)
	for {
		n, rerr := io.ReadFull(src, buf)
		if rerr != nil && rerr != io.EOF && rerr != io.ErrUnexpectedEOF {
			return written, fmt.Errorf("read ciphertext: %w", rerr)
		}
		if n%aes.BlockSize != 0 {
			return written, fmt.Errorf("%w: truncated block", cloudtab_errors.ErrCorruptCiphertext)
		}
		if n > 0 {
			dec.CryptBlocks(buf[:n], buf[:n])
			if err := emit(held); err != nil {
				return written, err
			}
			if err := emit(buf[:n-aes.BlockSize]); err != nil {
				return written, err
			}
			held = append(held[:0], buf[n-aes.BlockSize:n]...)
		}
		if rerr == nil {
			continue
		}
		if len(held) == 0 {
			return written, fmt.Errorf("%w: empty body", cloudtab_errors.ErrCorruptCiphertext)
		}
		trimmed, perr := pkcs7Unpad(held)
		if perr != nil {
			return written, perr
		}
		if err := emit(trimmed); err != nil {
			return written, err
		}
		return written, nil
	}
}

func newBlock(key []byte) (cipher.Block, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", cloudtab_errors.ErrInvalidKey, len(key), KeySize)
	}
	return aes.NewCipher(key)
}

// pkcs7Pad pads a tail shorter than one block up to a full block.
func pkcs7Pad(tail []byte) []byte {
	pad := aes.BlockSize - len(tail)
	out := make([]byte, aes.BlockSize)
	copy(out, tail)
	for i := len(tail); i < aes.BlockSize; i++ {
		out[i] = byte(pad)
	}
	return out
}

func pkcs7Unpad(blk []byte) ([]byte, error) {
	pad := int(blk[len(blk)-1])
	if pad == 0 || pad > aes.BlockSize {
		return nil, fmt.Errorf("%w: bad padding", cloudtab_errors.ErrCorruptCiphertext)
	}
	for _, b := range blk[len(blk)-pad:] {
		if int(b) != pad {
			return nil, fmt.Errorf("%w: bad padding", cloudtab_errors.ErrCorruptCiphertext)
		}
	}
	return blk[:len(blk)-pad], nil
}
