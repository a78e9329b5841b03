package emprendyup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"emprendyup-catalog/internal/config"
	"emprendyup-catalog/internal/domain/model"
	"emprendyup-catalog/internal/infra/retry"
	"emprendyup-catalog/internal/logging"
)

type recordedRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func newTestClient(t *testing.T, fields string, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.APIConfig{GraphQLURL: srv.URL + "/graphql", Token: "tkn", Timeout: time.Second, VariantFields: fields}
	return NewClient(cfg, srv.Client(), logging.Nop()).WithRetryPolicy(retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
	})
}

func decodeRequest(t *testing.T, r *http.Request) recordedRequest {
	t.Helper()
	var req recordedRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req
}

func TestProductVariantsByProductNormalisesFieldNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		fields    string
		selection string
		body      string
	}{
		{
			name:      "plain fields",
			fields:    "plain",
			selection: "id name type jsonData",
			body:      `{"data":{"productVariantsByProduct":[{"id":"v1","name":"Red","type":"color","jsonData":{"hex":"#FF0000"}}]}}`,
		},
		{
			name:      "suffixed fields",
			fields:    "suffixed",
			selection: "id nameVariant typeVariant jsonData",
			body:      `{"data":{"productVariantsByProduct":[{"id":"v1","nameVariant":"Red","typeVariant":"color","jsonData":"{\"hex\":\"#FF0000\"}"}]}}`,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			client := newTestClient(t, tc.fields, func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
				req := decodeRequest(t, r)
				require.Contains(t, req.Query, tc.selection)
				require.Equal(t, "p1", req.Variables["productId"])
				_, _ = w.Write([]byte(tc.body))
			})

			got, err := client.ProductVariantsByProduct(context.Background(), "p1")
			require.NoError(t, err)
			require.Equal(t, []model.CanonicalVariant{{
				ID:      "v1",
				Type:    "color",
				Name:    "Red",
				AuxData: map[string]any{"hex": "#FF0000"},
			}}, got)
		})
	}
}

func TestCreateVariantsSendsBatch(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, "plain", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		req := decodeRequest(t, r)
		inputs, ok := req.Variables["inputs"].([]any)
		require.True(t, ok)
		require.Len(t, inputs, 2)
		first := inputs[0].(map[string]any)
		require.Equal(t, "Red", first["name"])
		require.Equal(t, "color", first["type"])
		require.Equal(t, "p1", first["productId"])
		_, _ = w.Write([]byte(`{"data":{"createVariants":[{"id":"v1"},{"id":"v2"}]}}`))
	})

	ids, err := client.CreateVariants(context.Background(), []model.VariantInput{
		{ProductID: "p1", Type: "color", Name: "Red", AuxData: map[string]any{"hex": "#FF0000"}},
		{ProductID: "p1", Type: "size", Name: "S"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"v1", "v2"}, ids)
	require.EqualValues(t, 1, calls.Load())

	ids, err = client.CreateVariants(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, ids)
	require.EqualValues(t, 1, calls.Load())
}

func TestQueriesRetryOnServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, "plain", func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"categories":[{"id":"c1","name":"Ropa","slug":"ropa"}]}}`))
	})

	categories, err := client.Categories(context.Background())
	require.NoError(t, err)
	require.Equal(t, []model.Category{{ID: "c1", Name: "Ropa", Slug: "ropa"}}, categories)
	require.EqualValues(t, 3, calls.Load())
}

func TestMutationsDoNotRetryOnServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, "plain", func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := client.CreateVariantCombination(context.Background(), model.CombinationInput{
		ProductID:  "p1",
		VariantIDs: []string{"v1"},
		Price:      decimal.NewFromInt(10),
		Stock:      1,
	})
	require.Error(t, err)
	require.Equal(t, http.StatusBadGateway, StatusCode(err))
	require.EqualValues(t, 1, calls.Load())
}

func TestMutationsRetryWhenThrottled(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, "plain", func(w http.ResponseWriter, _ *http.Request) {
		switch calls.Add(1) {
		case 1:
			http.Error(w, "slow down", http.StatusTooManyRequests)
		case 2:
			_, _ = w.Write([]byte(`{"errors":[{"message":"Throttled"}]}`))
		default:
			_, _ = w.Write([]byte(`{"data":{"createProduct":{"id":"p9"}}}`))
		}
	})

	id, err := client.CreateProduct(context.Background(), model.Product{Name: "Gorra", Price: decimal.NewFromInt(5)})
	require.NoError(t, err)
	require.Equal(t, "p9", id)
	require.EqualValues(t, 3, calls.Load())
}

func TestGraphQLErrorsAreTyped(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "plain", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"Variant not found","path":["updateStockForVariantCombination"]}]}`))
	})

	_, err := client.UpdateStockForVariantCombination(context.Background(), "s1", model.StockUpdate{Stock: 1, Available: true})
	require.Error(t, err)
	var gqlErr *GraphQLError
	require.ErrorAs(t, err, &gqlErr)
	require.Equal(t, "updateStockForVariantCombination", gqlErr.Operation)
	require.True(t, strings.Contains(err.Error(), "Variant not found"))
}

func TestUpdateStockSendsInput(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "plain", func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		require.Equal(t, "s1", req.Variables["stockId"])
		input := req.Variables["input"].(map[string]any)
		require.Equal(t, 1500.5, input["price"])
		require.Equal(t, float64(4), input["stock"])
		require.Equal(t, true, input["available"])
		_, _ = w.Write([]byte(`{"data":{"updateStockForVariantCombination":{"id":"s1","price":"1500.5","stock":4,"available":true}}}`))
	})

	record, err := client.UpdateStockForVariantCombination(context.Background(), "s1", model.StockUpdate{
		Price:     decimal.RequireFromString("1500.5"),
		Stock:     4,
		Available: true,
	})
	require.NoError(t, err)
	require.Equal(t, "s1", record.ID)
	require.Equal(t, 4, record.Stock)
	require.True(t, decimal.RequireFromString("1500.5").Equal(record.Price))
}

func TestVariantCombinationsByProduct(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "suffixed", func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		require.Contains(t, req.Query, "variants { id nameVariant typeVariant jsonData }")
		_, _ = w.Write([]byte(`{"data":{"variantCombinationsByProduct":[{"id":"vc1",` +
			`"variants":[{"id":"v1","nameVariant":"Red","typeVariant":"color"},{"id":"v2","nameVariant":"S","typeVariant":"size"}],` +
			`"stockPrices":[{"id":"sp1","price":1000,"stock":7}]}]}}`))
	})

	got, err := client.VariantCombinationsByProduct(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "vc1", got[0].ID)
	require.Equal(t, "Red", got[0].Variants[0].Name)
	require.Equal(t, "size", got[0].Variants[1].Type)
	require.Len(t, got[0].StockPrices, 1)
	require.Equal(t, 7, got[0].StockPrices[0].Stock)
	require.True(t, got[0].StockPrices[0].Available)
	require.True(t, decimal.NewFromInt(1000).Equal(got[0].StockPrices[0].Price))
}

func TestEmptyIdentifiersFailFast(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "plain", func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.ProductVariantsByProduct(context.Background(), " ")
	require.Error(t, err)
	_, err = client.CreateVariantCombination(context.Background(), model.CombinationInput{ProductID: "p1"})
	require.Error(t, err)
	require.Error(t, client.UpdateProduct(context.Background(), "", model.Product{Name: "x"}))
}
