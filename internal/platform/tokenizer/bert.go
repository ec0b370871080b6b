// Package tokenizer はBERT (uncased) のWordPieceトークナイザーを固定長エンコーダーとして提供します。
//
// Encode は常に MaxLength 個のトークンIDを返します。先頭に [CLS]、末尾に [SEP] を付与し、
// 長い入力は切り詰め、短い入力は右側を [PAD] で埋めます。
package tokenizer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	hf "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model/wordpiece"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	"github.com/sugarme/tokenizer/processor"
)

// Special tokens.
const (
	TokenPad = "[PAD]"
	TokenUnk = "[UNK]"
	TokenCLS = "[CLS]"
	TokenSEP = "[SEP]"
)

// Bert wraps a configured tokenizer. Encode calls are serialized.
type Bert struct {
	mu        sync.Mutex
	tk        *hf.Tokenizer
	maxLength int
}

// Load reads a vocab.txt or a Hugging Face tokenizer.json and returns an
// encoder producing sequences of exactly maxLength ids.
func Load(path string, maxLength int) (*Bert, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read vocab %s: %w", path, err)
	}

	var (
		tk  *hf.Tokenizer
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		tk, err = pretrained.FromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to decode tokenizer.json: %w", err)
		}
	} else {
		tk, err = fromVocab(path)
		if err != nil {
			return nil, err
		}
	}
	return New(tk, maxLength)
}

// fromVocab assembles the bert-base-uncased pipeline around a plain vocab file.
func fromVocab(path string) (*hf.Tokenizer, error) {
	model, err := wordpiece.NewWordPieceFromFile(path, TokenUnk)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocab %s: %w", path, err)
	}
	tk := hf.NewTokenizer(model)
	tk.WithNormalizer(normalizer.NewBertNormalizer(true, true, true, true))
	tk.WithPreTokenizer(pretokenizer.NewBertPreTokenizer())
	return tk, nil
}

// New sets [CLS]/[SEP] post-processing, truncation and fixed right padding on tk.
func New(tk *hf.Tokenizer, maxLength int) (*Bert, error) {
	if maxLength < 2 {
		return nil, fmt.Errorf("max length must be at least 2, got %d", maxLength)
	}

	ids := make(map[string]int, 4)
	for _, tok := range []string{TokenPad, TokenUnk, TokenCLS, TokenSEP} {
		id, ok := tk.TokenToId(tok)
		if !ok {
			return nil, fmt.Errorf("vocab is missing special token %s", tok)
		}
		ids[tok] = id
	}

	tk.WithPostProcessor(processor.NewBertProcessing(
		processor.PostToken{Id: ids[TokenSEP], Value: TokenSEP},
		processor.PostToken{Id: ids[TokenCLS], Value: TokenCLS},
	))
	tk.WithTruncation(&hf.TruncationParams{
		MaxLength: maxLength,
		Strategy:  hf.LongestFirst,
		Stride:    0,
	})
	tk.WithPadding(&hf.PaddingParams{
		Strategy:  *hf.NewPaddingStrategy(hf.WithFixed(maxLength)),
		Direction: hf.Right,
		PadId:     ids[TokenPad],
		PadTypeId: 0,
		PadToken:  TokenPad,
	})

	return &Bert{tk: tk, maxLength: maxLength}, nil
}

// MaxLength returns the fixed output length of Encode.
func (b *Bert) MaxLength() int { return b.maxLength }

// Encode returns [CLS] pieces... [SEP] followed by [PAD], exactly MaxLength ids long.
func (b *Bert) Encode(text string) ([]int32, error) {
	en, err := b.encode(text, true)
	if err != nil {
		return nil, err
	}
	if len(en.Ids) != b.maxLength {
		return nil, fmt.Errorf("encoded %d ids, want %d", len(en.Ids), b.maxLength)
	}
	out := make([]int32, len(en.Ids))
	for i, id := range en.Ids {
		out[i] = int32(id)
	}
	return out, nil
}

// Tokenize returns the word pieces for text without special tokens or padding.
func (b *Bert) Tokenize(text string) ([]string, error) {
	en, err := b.encode(text, false)
	if err != nil {
		return nil, err
	}
	var out []string
	for i, tok := range en.Tokens {
		if en.AttentionMask[i] == 1 {
			out = append(out, tok)
		}
	}
	return out, nil
}

func (b *Bert) encode(text string, special bool) (*hf.Encoding, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	en, err := b.tk.EncodeSingle(text, special)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize: %w", err)
	}
	return en, nil
}
