package notification

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gateway/apps/gateway/internal/events"
	"gateway/apps/gateway/internal/metrics"
	"gateway/apps/gateway/internal/model"
	"gateway/apps/gateway/internal/push"
	"gateway/apps/gateway/internal/upstream"
)

var (
	safeAddr  = common.HexToAddress("0x5afe000000000000000000000000000000000001").Hex()
	ownerA    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	ownerB    = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	outsider  = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	delegate1 = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	delegate2 = common.HexToAddress("0x00000000000000000000000000000000000000d2")
	delegate3 = common.HexToAddress("0x00000000000000000000000000000000000000d3")
)

type fakeSubscriptions struct {
	subs  []model.Subscription
	err   error
	calls atomic.Int32
}

func (f *fakeSubscriptions) GetSubscribersBySafe(context.Context, string, string) ([]model.Subscription, error) {
	f.calls.Add(1)
	return f.subs, f.err
}

type fakeSafes struct {
	safe         upstream.Safe
	tx           upstream.MultisigTransaction
	transfers    upstream.Page[upstream.Transfer]
	transfersErr error
}

func (f *fakeSafes) GetSafe(context.Context, string, string) (upstream.Safe, error) {
	return f.safe, nil
}

func (f *fakeSafes) GetMultisigTransaction(context.Context, string, string) (upstream.MultisigTransaction, error) {
	return f.tx, nil
}

func (f *fakeSafes) GetIncomingTransfers(context.Context, string, string, string) (upstream.Page[upstream.Transfer], error) {
	return f.transfers, f.transfersErr
}

type fakeMessages struct {
	msg upstream.Message
}

func (f *fakeMessages) GetMessageByHash(context.Context, string, string) (upstream.Message, error) {
	return f.msg, nil
}

// fakeDelegates answers by delegate address.
type fakeDelegates struct {
	byDelegate map[common.Address][]upstream.Delegate
	fail       map[common.Address]error
}

func (f *fakeDelegates) GetDelegates(_ context.Context, _ string, _ string, delegate string) (upstream.Page[upstream.Delegate], error) {
	addr := common.HexToAddress(delegate)
	if err := f.fail[addr]; err != nil {
		return upstream.Page[upstream.Delegate]{}, err
	}
	results := f.byDelegate[addr]
	return upstream.Page[upstream.Delegate]{Count: len(results), Results: results}, nil
}

type fakePusher struct {
	mu   sync.Mutex
	sent []push.Message
	fail map[string]error
}

func (f *fakePusher) EnqueueNotification(_ context.Context, msg push.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[msg.Token]; err != nil {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakePusher) tokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.Token
	}
	sort.Strings(out)
	return out
}

func (f *fakePusher) byToken(token string) (push.Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.sent {
		if m.Token == token {
			return m, true
		}
	}
	return push.Message{}, false
}

type fixture struct {
	subs      *fakeSubscriptions
	safes     *fakeSafes
	messages  *fakeMessages
	delegates *fakeDelegates
	pusher    *fakePusher
	metrics   *metrics.Metrics
}

func newFixture() *fixture {
	return &fixture{
		subs: &fakeSubscriptions{},
		safes: &fakeSafes{safe: upstream.Safe{
			Address:   safeAddr,
			Threshold: 2,
			Owners:    []string{ownerA.Hex(), ownerB.Hex()},
		}},
		messages:  &fakeMessages{},
		delegates: &fakeDelegates{byDelegate: map[common.Address][]upstream.Delegate{}, fail: map[common.Address]error{}},
		pusher:    &fakePusher{fail: map[string]error{}},
		metrics:   metrics.NewNop(),
	}
}

func (f *fixture) engine() *Engine {
	return NewEngine(f.subs, f.safes, f.messages, f.delegates, f.pusher, f.metrics, zap.NewNop())
}

func subscription(token string, subscriber *common.Address) model.Subscription {
	return model.Subscription{
		ChainID:             "1",
		SafeAddress:         common.HexToAddress(safeAddr),
		Subscriber:          subscriber,
		DeviceUUID:          uuid.New(),
		CloudMessagingToken: token,
	}
}

func addr(a common.Address) *common.Address {
	return &a
}

func delegation(delegate, delegator common.Address) upstream.Delegate {
	safe := safeAddr
	return upstream.Delegate{Safe: &safe, Delegate: delegate.Hex(), Delegator: delegator.Hex()}
}

func pendingEvent() events.Event {
	return events.Event{Type: events.PendingMultisigTransaction, ChainID: "1", Address: safeAddr, SafeTxHash: "0xabc"}
}

func TestDuplicateTokensGetOneNotification(t *testing.T) {
	f := newFixture()
	first := subscription("shared", nil)
	f.subs.subs = []model.Subscription{first, subscription("shared", nil), subscription("shared", nil)}

	f.engine().OnEvent(context.Background(), events.Event{Type: events.ExecutedMultisigTransaction, ChainID: "1", Address: safeAddr, SafeTxHash: "0xabc", TxHash: "0xdef"})

	assert.Equal(t, []string{"shared"}, f.pusher.tokens())
	msg, _ := f.pusher.byToken("shared")
	assert.Equal(t, first.DeviceUUID, msg.DeviceUUID)
}

func TestPassthroughPayloadIsTheEvent(t *testing.T) {
	f := newFixture()
	f.subs.subs = []model.Subscription{subscription("t", nil)}
	ev := events.Event{Type: events.ModuleTransaction, ChainID: "1", Address: safeAddr, TxHash: "0xdef", Module: ownerA.Hex()}

	f.engine().OnEvent(context.Background(), ev)

	msg, ok := f.pusher.byToken("t")
	require.True(t, ok)
	assert.Equal(t, EventNotification{Event: ev}, msg.Notification.Data)
}

func TestThresholdOneNeverRequestsConfirmation(t *testing.T) {
	f := newFixture()
	f.safes.safe.Threshold = 1
	f.subs.subs = []model.Subscription{subscription("a", addr(ownerA)), subscription("b", addr(ownerB))}

	f.engine().OnEvent(context.Background(), pendingEvent())

	assert.Empty(t, f.pusher.tokens())
}

func TestPendingTransactionNotifiesUnsignedOwnersOnly(t *testing.T) {
	f := newFixture()
	f.safes.tx = upstream.MultisigTransaction{SafeTxHash: "0xabc", Confirmations: []upstream.Confirmation{{Owner: ownerA.Hex()}}}
	f.subs.subs = []model.Subscription{
		subscription("a", addr(ownerA)),
		subscription("b", addr(ownerB)),
		subscription("watcher", nil),
		subscription("outsider", addr(outsider)),
	}

	f.engine().OnEvent(context.Background(), pendingEvent())

	require.Equal(t, []string{"b"}, f.pusher.tokens())
	msg, _ := f.pusher.byToken("b")
	assert.Equal(t, ConfirmationRequestNotification{
		Type:       ConfirmationRequest,
		To:         ownerB.Hex(),
		ChainID:    "1",
		Address:    safeAddr,
		SafeTxHash: "0xabc",
	}, msg.Notification.Data)
}

func TestDelegateOfSignedOwnerIsNotNotified(t *testing.T) {
	f := newFixture()
	f.safes.tx = upstream.MultisigTransaction{Confirmations: []upstream.Confirmation{{Owner: ownerA.Hex()}}}
	f.delegates.byDelegate[delegate1] = []upstream.Delegate{delegation(delegate1, ownerA)}
	f.delegates.byDelegate[delegate2] = []upstream.Delegate{delegation(delegate2, ownerB)}
	f.subs.subs = []model.Subscription{subscription("d1", addr(delegate1)), subscription("d2", addr(delegate2))}

	f.engine().OnEvent(context.Background(), pendingEvent())

	assert.Equal(t, []string{"d2"}, f.pusher.tokens())
}

func TestDelegateLookupFailureExcludesOnlyThatSubscriber(t *testing.T) {
	f := newFixture()
	for _, d := range []common.Address{delegate1, delegate2, delegate3} {
		f.delegates.byDelegate[d] = []upstream.Delegate{delegation(d, ownerA)}
	}
	f.delegates.fail[delegate2] = errors.New("transaction service timeout")
	f.subs.subs = []model.Subscription{
		subscription("d1", addr(delegate1)),
		subscription("d2", addr(delegate2)),
		subscription("d3", addr(delegate3)),
	}

	assert.NotPanics(t, func() {
		f.engine().OnEvent(context.Background(), pendingEvent())
	})

	assert.Equal(t, []string{"d1", "d3"}, f.pusher.tokens())
}

func TestSelfTransferIsSuppressed(t *testing.T) {
	for _, typ := range []events.Type{events.IncomingEther, events.IncomingToken} {
		t.Run(string(typ), func(t *testing.T) {
			f := newFixture()
			f.safes.transfers = upstream.Page[upstream.Transfer]{Results: []upstream.Transfer{{From: safeAddr, To: safeAddr}}}
			f.subs.subs = []model.Subscription{subscription("a", addr(ownerA)), subscription("w", nil)}

			f.engine().OnEvent(context.Background(), events.Event{Type: typ, ChainID: "1", Address: safeAddr, TxHash: "0xdef", Value: "1", TokenAddress: ownerB.Hex()})

			assert.Empty(t, f.pusher.tokens())
		})
	}
}

func TestIncomingTransferFromOtherAddressIsNotified(t *testing.T) {
	f := newFixture()
	f.safes.transfers = upstream.Page[upstream.Transfer]{Results: []upstream.Transfer{{From: outsider.Hex(), To: safeAddr}}}
	f.subs.subs = []model.Subscription{subscription("w", nil)}

	f.engine().OnEvent(context.Background(), events.Event{Type: events.IncomingEther, ChainID: "1", Address: safeAddr, TxHash: "0xdef", Value: "1"})

	assert.Equal(t, []string{"w"}, f.pusher.tokens())
}

func TestIncomingTransferLookupFailureStillNotifies(t *testing.T) {
	f := newFixture()
	f.safes.transfersErr = errors.New("lookup failed")
	f.subs.subs = []model.Subscription{subscription("w", nil)}

	f.engine().OnEvent(context.Background(), events.Event{Type: events.IncomingEther, ChainID: "1", Address: safeAddr, TxHash: "0xdef", Value: "1"})

	assert.Equal(t, []string{"w"}, f.pusher.tokens())
}

func TestMessageCreatedRequestsMessageConfirmation(t *testing.T) {
	f := newFixture()
	f.messages.msg = upstream.Message{MessageHash: "0xdeadbeef"}
	f.subs.subs = []model.Subscription{subscription("a", addr(ownerA))}

	f.engine().OnEvent(context.Background(), events.Event{Type: events.MessageCreated, ChainID: "5", Address: safeAddr, MessageHash: "0xdeadbeef"})

	msg, ok := f.pusher.byToken("a")
	require.True(t, ok)
	assert.Equal(t, MessageConfirmationRequestNotification{
		Type:        MessageConfirmationRequest,
		To:          ownerA.Hex(),
		ChainID:     "5",
		Address:     safeAddr,
		MessageHash: "0xdeadbeef",
	}, msg.Notification.Data)
}

func TestMessageCreatedSkipsSubscriberWhoSigned(t *testing.T) {
	f := newFixture()
	f.messages.msg = upstream.Message{Confirmations: []upstream.MessageConfirmation{{Owner: ownerA.Hex()}}}
	f.subs.subs = []model.Subscription{subscription("a", addr(ownerA)), subscription("b", addr(ownerB))}

	f.engine().OnEvent(context.Background(), events.Event{Type: events.MessageCreated, ChainID: "5", Address: safeAddr, MessageHash: "0xdeadbeef"})

	assert.Equal(t, []string{"b"}, f.pusher.tokens())
}

func TestDeliveryFailureDoesNotStopOthers(t *testing.T) {
	f := newFixture()
	f.pusher.fail["bad"] = errors.New("broker unavailable")
	f.subs.subs = []model.Subscription{subscription("bad", nil), subscription("good", nil)}

	f.engine().OnEvent(context.Background(), events.Event{Type: events.DeletedMultisigTransaction, ChainID: "1", Address: safeAddr, SafeTxHash: "0xabc"})

	assert.Equal(t, []string{"good"}, f.pusher.tokens())
	typ := string(events.DeletedMultisigTransaction)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Notifications.WithLabelValues(typ, "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Notifications.WithLabelValues(typ, "error")))
}

func TestSilentTypesSkipSubscriberLookup(t *testing.T) {
	silentTypes := []events.Type{
		events.ChainUpdate, events.SafeAppsUpdate, events.OutgoingEther, events.OutgoingToken,
		events.NewConfirmation, events.MessageConfirmation, events.SafeCreated, events.ReorgDetected,
		events.NewDelegate, events.UpdatedDelegate, events.DeletedDelegate,
	}
	for _, typ := range silentTypes {
		t.Run(string(typ), func(t *testing.T) {
			f := newFixture()
			f.subs.subs = []model.Subscription{subscription("a", addr(ownerA))}

			f.engine().OnEvent(context.Background(), events.Event{Type: typ, ChainID: "1", Address: safeAddr})

			assert.False(t, IsNotifiable(typ))
			assert.Zero(t, f.subs.calls.Load())
			assert.Empty(t, f.pusher.tokens())
		})
	}
}

func TestSubscriptionLookupFailureSendsNothing(t *testing.T) {
	f := newFixture()
	f.subs.err = errors.New("db down")

	f.engine().OnEvent(context.Background(), pendingEvent())

	assert.Empty(t, f.pusher.tokens())
}

func TestDedupeKeepsFirstPerToken(t *testing.T) {
	a1 := subscription("a", nil)
	b := subscription("b", nil)
	a2 := subscription("a", addr(ownerA))

	got := dedupeByToken([]model.Subscription{a1, b, a2}, subscriptionToken)

	assert.Equal(t, []model.Subscription{a1, b}, got)
}

func TestSharedDeviceIsAskedForUnsignedOwnerKey(t *testing.T) {
	for name, order := range map[string][]common.Address{
		"signed key first": {ownerB, ownerA},
		"signed key last":  {ownerA, ownerB},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			f.safes.tx = upstream.MultisigTransaction{SafeTxHash: "0xabc", Confirmations: []upstream.Confirmation{{Owner: ownerB.Hex()}}}
			f.subs.subs = []model.Subscription{subscription("phone", addr(order[0])), subscription("phone", addr(order[1]))}

			f.engine().OnEvent(context.Background(), pendingEvent())

			require.Equal(t, []string{"phone"}, f.pusher.tokens())
			msg, _ := f.pusher.byToken("phone")
			assert.Equal(t, ownerA.Hex(), msg.Notification.Data.(ConfirmationRequestNotification).To)
		})
	}
}

func TestSharedDeviceWithEveryKeySignedGetsNothing(t *testing.T) {
	f := newFixture()
	f.safes.tx = upstream.MultisigTransaction{Confirmations: []upstream.Confirmation{{Owner: ownerA.Hex()}, {Owner: ownerB.Hex()}}}
	f.subs.subs = []model.Subscription{subscription("phone", addr(ownerA)), subscription("phone", addr(ownerB))}

	f.engine().OnEvent(context.Background(), pendingEvent())

	assert.Empty(t, f.pusher.tokens())
}

func TestSharedDeviceWithOutsiderKeyStillNotified(t *testing.T) {
	f := newFixture()
	f.subs.subs = []model.Subscription{subscription("phone", addr(ownerA)), subscription("phone", addr(outsider))}

	f.engine().OnEvent(context.Background(), pendingEvent())

	require.Equal(t, []string{"phone"}, f.pusher.tokens())
	msg, _ := f.pusher.byToken("phone")
	assert.Equal(t, ownerA.Hex(), msg.Notification.Data.(ConfirmationRequestNotification).To)
}
