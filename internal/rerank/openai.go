// Package rerank reorders filtered search results with an LLM. It is
// strictly optional: callers treat any error as "keep the local order".
package rerank

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"fiyatradar/internal/model"
)

func systemPrompt() string {
	return `
Sen bir market fiyat karşılaştırma asistanısın. Sana bir arama sorgusu ve
ürün listesi verilecek.

GÖREV:
1. Sorguyla alakasız ürünleri listeden çıkar.
2. Kalanları 1 kg normalize fiyatına göre en ucuzdan pahalıya sırala;
   normalize fiyatı olmayanlar toplam fiyata göre en sona gelir.

CEVAP FORMATI (zorunlu):
Sadece bir JSON dizisi döndür; elemanlar girişteki ürünlerin 0 tabanlı
indeksleri. Örnek: [2,0,5]. Başka hiçbir metin yazma.
`
}

// Reranker asks an OpenAI chat model to filter and reorder products.
type Reranker struct {
	client *openai.Client
	model  string
}

func New(client *openai.Client) *Reranker {
	return &Reranker{client: client, model: openai.GPT4oMini}
}

type promptProduct struct {
	Index      int      `json:"index"`
	Name       string   `json:"name"`
	Market     string   `json:"market"`
	Price      float64  `json:"price"`
	PricePerKg *float64 `json:"price_per_kg,omitempty"`
}

// Rerank returns the products in the model's order. Indices the model
// invents are skipped; an empty or unparsable answer is an error so the
// caller can fall back to the local order.
func (r *Reranker) Rerank(ctx context.Context, query string, products []model.Product) ([]model.Product, error) {
	compact := make([]promptProduct, len(products))
	for i, p := range products {
		compact[i] = promptProduct{
			Index:      i,
			Name:       p.ProductName,
			Market:     p.MarketName,
			Price:      p.Price,
			PricePerKg: p.NormalizedPricePerKg,
		}
	}
	payload, err := json.Marshal(compact)
	if err != nil {
		return nil, err
	}

	messages := []openai.ChatCompletionMessage{
		{
			Role:    "system",
			Content: systemPrompt(),
		},
		{
			Role:    "user",
			Content: fmt.Sprintf("Sorgu: %q\nÜrünler:\n%s", query, payload),
		},
	}

	log.Printf("[rerank] %d ürün gönderiliyor (~%d token)", len(products), len(payload)/4)

	resp, err := r.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       r.model,
			Messages:    messages,
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("rerank cevabında choice yok")
	}

	return applyOrder(products, resp.Choices[0].Message.Content)
}

// applyOrder parses the returned index array and maps it back onto the
// input list, ignoring out-of-range and repeated indices.
func applyOrder(products []model.Product, answer string) ([]model.Product, error) {
	answer = strings.TrimSpace(answer)
	// Model bazen cevabı kod bloğuna sarar
	if i := strings.Index(answer, "["); i >= 0 {
		if j := strings.LastIndex(answer, "]"); j > i {
			answer = answer[i : j+1]
		}
	}

	var order []int
	if err := json.Unmarshal([]byte(answer), &order); err != nil {
		return nil, fmt.Errorf("rerank cevabı çözülemedi: %w", err)
	}

	used := map[int]bool{}
	var reranked []model.Product
	for _, idx := range order {
		if idx < 0 || idx >= len(products) || used[idx] {
			continue
		}
		used[idx] = true
		reranked = append(reranked, products[idx])
	}
	if len(reranked) == 0 {
		return nil, fmt.Errorf("rerank cevabında geçerli indeks yok")
	}
	return reranked, nil
}
