package documents

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_IsValid(t *testing.T) {
	for _, typ := range []Type{TypeInvoice, TypeVoucher, TypeItinerary, TypeReceipt} {
		assert.True(t, typ.IsValid(), typ)
	}
	assert.False(t, Type("contract").IsValid())
	assert.False(t, Type("").IsValid())
}

func TestClient_Generate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var got Request
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/documents", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Write([]byte(`{"url":"https://files.example/inv-b1.pdf"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL + "/")
		link, err := client.Generate(context.Background(), Request{BookingID: "b1", Type: TypeInvoice, TotalAmount: 1200})
		require.NoError(t, err)
		assert.Equal(t, "https://files.example/inv-b1.pdf", link)
		assert.Equal(t, "b1", got.BookingID)
		assert.Equal(t, TypeInvoice, got.Type)
	})

	t.Run("Error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("renderer busy"))
		}))
		defer server.Close()

		_, err := NewClient(server.URL).Generate(context.Background(), Request{BookingID: "b1", Type: TypeVoucher})
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode())
		assert.Contains(t, statusErr.Error(), "renderer busy")
	})

	t.Run("Empty url", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		_, err := NewClient(server.URL).Generate(context.Background(), Request{BookingID: "b1", Type: TypeReceipt})
		assert.ErrorIs(t, err, ErrEmptyURL)
	})

	t.Run("Unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		addr := server.URL
		server.Close()

		_, err := NewClient(addr).Generate(context.Background(), Request{BookingID: "b1", Type: TypeInvoice})
		var urlErr *url.Error
		assert.True(t, errors.As(err, &urlErr))
	})

	t.Run("Context deadline", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := NewClient(server.URL).Generate(ctx, Request{BookingID: "b1", Type: TypeInvoice})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestLinkGenerator(t *testing.T) {
	g := NewLinkGenerator("https://docs.example/")

	link, err := g.Generate(context.Background(), Request{BookingID: "b 1", Type: TypeItinerary})
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example/bookings/b%201/itinerary.pdf", link)

	again, _ := g.Generate(context.Background(), Request{BookingID: "b 1", Type: TypeItinerary})
	assert.Equal(t, link, again)
}
