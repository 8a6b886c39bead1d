// Package seed generates and bulk-inserts demo catalog products.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/services/shopapi/internal/domain"
)

// namespace keeps generated ids stable across runs.
var namespace = uuid.MustParse("6f1c1d52-7d1a-4b8e-9a57-3c0f6f1e2a10")

type category struct {
	Name   string
	Unit   string
	Weight float64
	Types  []string
}

var categories = []category{
	{Name: "茶葉", Unit: "包", Weight: 0.4, Types: []string{"高山烏龍", "東方美人", "紅玉紅茶", "包種茶", "鐵觀音", "抹茶粉"}},
	{Name: "點心", Unit: "盒", Weight: 0.35, Types: []string{"鳳梨酥", "花生麻糬", "綠豆糕", "蛋捲", "牛軋糖"}},
	{Name: "茶具", Unit: "組", Weight: 0.25, Types: []string{"品茗杯", "紫砂壺", "公道杯", "茶盤", "濾茶器"}},
}

var (
	origins    = []string{"阿里山", "梨山", "坪林", "鹿谷", "日月潭", "三峽", "台東", "花蓮"}
	contents   = []string{"經典款", "禮盒款", "限量款", "家庭號", "隨身包"}
	blurbTpls  = []string{"嚴選%s，產地直送。", "%s，職人手作，每日限量。", "送禮自用兩相宜的%s。"}
	imageHosts = "https://images.unsplash.com/photo-"
)

// Generate returns n products drawn deterministically from seed. About a
// third are on sale (price below origin_price).
func Generate(n int, seed int64) []domain.Product {
	rng := rand.New(rand.NewSource(seed))
	now := time.Now().UTC()
	products := make([]domain.Product, 0, n)

	for i := 0; i < n; i++ {
		cat := pickCategory(rng)
		kind := cat.Types[rng.Intn(len(cat.Types))]
		origin := origins[rng.Intn(len(origins))]
		title := fmt.Sprintf("%s %s", origin, kind)

		// Origin price: 100-2000, rounded to tens.
		originPrice := int64(100+rng.Intn(1901)) / 10 * 10
		price := originPrice
		if rng.Intn(3) == 0 {
			price = originPrice * int64(70+rng.Intn(21)) / 100 / 10 * 10
		}

		products = append(products, domain.Product{
			ID:          uuid.NewSHA1(namespace, []byte(fmt.Sprintf("product:%d", i))).String(),
			Title:       title,
			Category:    cat.Name,
			ImageURL:    fmt.Sprintf("%s%d", imageHosts, 1500000000000+rng.Int63n(99999999999)),
			Price:       decimal.NewFromInt(price),
			OriginPrice: decimal.NewFromInt(originPrice),
			Content:     contents[rng.Intn(len(contents))],
			Description: fmt.Sprintf(blurbTpls[rng.Intn(len(blurbTpls))], kind),
			Unit:        cat.Unit,
			IsEnabled:   rng.Intn(20) != 0,
			CreatedAt:   now.Add(-time.Duration(rng.Intn(90*24*60)) * time.Minute),
		})
	}

	return products
}

func pickCategory(rng *rand.Rand) category {
	r := rng.Float64()
	for _, c := range categories {
		if r < c.Weight {
			return c
		}
		r -= c.Weight
	}
	return categories[len(categories)-1]
}

const columnsPerRow = 11

// Insert writes products in multi-row INSERT batches. Existing ids are left
// untouched, so re-running a seed is harmless. It returns the number of rows
// actually inserted.
func Insert(ctx context.Context, db database.DBTX, products []domain.Product, batchSize int, logger *slog.Logger) (int64, error) {
	if batchSize < 1 {
		batchSize = 500
	}

	var inserted int64
	for start := 0; start < len(products); start += batchSize {
		end := min(start+batchSize, len(products))
		batch := products[start:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO products (id, title, category, image_url, price, origin_price, content, description, unit, is_enabled, created_at) VALUES `)
		args := make([]any, 0, len(batch)*columnsPerRow)
		for i, p := range batch {
			if i > 0 {
				sb.WriteString(", ")
			}
			base := i * columnsPerRow
			sb.WriteString("(")
			for c := 1; c <= columnsPerRow; c++ {
				if c > 1 {
					sb.WriteString(", ")
				}
				fmt.Fprintf(&sb, "$%d", base+c)
			}
			sb.WriteString(")")
			args = append(args, p.ID, p.Title, p.Category, p.ImageURL, p.Price, p.OriginPrice,
				p.Content, p.Description, p.Unit, p.IsEnabled, p.CreatedAt)
		}
		sb.WriteString(" ON CONFLICT (id) DO NOTHING")

		tag, err := db.Exec(ctx, sb.String(), args...)
		if err != nil {
			return inserted, fmt.Errorf("insert products %d-%d: %w", start, end-1, err)
		}
		inserted += tag.RowsAffected()

		logger.InfoContext(ctx, "product batch inserted",
			slog.Int("from", start),
			slog.Int("to", end-1),
			slog.Int64("rows", tag.RowsAffected()),
		)
	}

	return inserted, nil
}
