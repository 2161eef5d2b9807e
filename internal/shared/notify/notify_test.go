package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNotice() OpportunityCreated {
	return OpportunityCreated{
		OpportunityID:   "SG1Q10001",
		OpportunityName: "Acme - WiFi Upgrade - Jan 2026",
		CompanyName:     "Acme Corp",
		SalesName:       "Budi",
		SalesGroupID:    "SG1",
		PresalesName:    "alice",
		Lines: []OpportunityLine{
			{Solution: "WLAN", Brand: "Cisco", Cost: "5.000.000"},
		},
	}
}

func TestWebhookNotifierPostsCard(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(`{"code":0,"msg":"success"}`))
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second)
	require.NoError(t, n.OpportunityCreated(context.Background(), sampleNotice()))

	assert.Equal(t, "interactive", got["msg_type"])
	card := got["card"].(map[string]interface{})
	header := card["header"].(map[string]interface{})
	title := header["title"].(map[string]interface{})
	assert.Equal(t, "[New Opp] Acme - WiFi Upgrade - Jan 2026", title["content"])
}

func TestWebhookNotifierErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"code":19021,"msg":"sign match fail"}`))
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL+"/down", time.Second).OpportunityCreated(context.Background(), sampleNotice())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")

	err = NewWebhookNotifier(srv.URL, time.Second).OpportunityCreated(context.Background(), sampleNotice())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "19021")
}

func TestOpportunityCreatedCard(t *testing.T) {
	card := NewOpportunityCreatedCard(sampleNotice())
	require.Len(t, card.Elements, 4)
	assert.Len(t, card.Elements[0].Fields, 4)
	assert.Contains(t, card.Elements[2].Content, "**WLAN** (Cisco) - Rp 5.000.000")
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.OpportunityCreated(context.Background(), sampleNotice()))
}
