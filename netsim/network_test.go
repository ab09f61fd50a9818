package netsim

import (
	"testing"
	"time"

	"lockstep/protocol"
)

func perfectLink() Options {
	return Options{}
}

func TestCreateSocketDuplicateID(t *testing.T) {
	network := NewNetwork(1)
	if _, err := network.CreateSocket(0, perfectLink()); err != nil {
		t.Fatal(err)
	}
	if _, err := network.CreateSocket(0, perfectLink()); err == nil {
		t.Fatal("second socket for the same player should fail")
	}
}

func TestSendToUnknownPeer(t *testing.T) {
	network := NewNetwork(1)
	socket, err := network.CreateSocket(0, perfectLink())
	if err != nil {
		t.Fatal(err)
	}
	if err := socket.Send(7, &protocol.Message{SenderID: 0}); err == nil {
		t.Fatal("send to unregistered peer should fail")
	}
}

func TestDelivery(t *testing.T) {
	network := NewNetwork(1)
	sender, err := network.CreateSocket(0, perfectLink())
	if err != nil {
		t.Fatal(err)
	}
	receiver, err := network.CreateSocket(1, perfectLink())
	if err != nil {
		t.Fatal(err)
	}

	if err := sender.Send(1, &protocol.Message{SenderID: 0, Acks: []int64{5}}); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-receiver.Receive():
		if msg.SenderID != 0 || len(msg.Acks) != 1 || msg.Acks[0] != 5 {
			t.Fatalf("got %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("message never arrived")
	}
}

// A burst of arrivals must queue up, not overwrite each other, even when the
// consumer lags behind.
func TestInboxQueuesBursts(t *testing.T) {
	network := NewNetwork(1)
	receiver, err := network.CreateSocket(0, perfectLink())
	if err != nil {
		t.Fatal(err)
	}

	const count = 200
	for i := 0; i < count; i++ {
		receiver.deliver(&protocol.Message{SenderID: 1, Acks: []int64{int64(i)}})
	}

	for i := 0; i < count; i++ {
		select {
		case msg := <-receiver.Receive():
			if msg.Acks[0] != int64(i) {
				t.Fatalf("message %d arrived out of order: %+v", i, msg)
			}
		case <-time.After(time.Second):
			t.Fatalf("message %d lost in the inbox", i)
		}
	}
}

func TestTotalLossDropsSilently(t *testing.T) {
	network := NewNetwork(1)
	sender, err := network.CreateSocket(0, Options{PacketLoss: 1.0})
	if err != nil {
		t.Fatal(err)
	}
	receiver, err := network.CreateSocket(1, perfectLink())
	if err != nil {
		t.Fatal(err)
	}

	// No error: the sender must get no signal of the drop.
	if err := sender.Send(1, &protocol.Message{SenderID: 0}); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-receiver.Receive():
		t.Fatalf("message survived loss probability 1.0: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestReceiverSideLoss(t *testing.T) {
	network := NewNetwork(1)
	sender, err := network.CreateSocket(0, perfectLink())
	if err != nil {
		t.Fatal(err)
	}
	receiver, err := network.CreateSocket(1, Options{PacketLoss: 1.0})
	if err != nil {
		t.Fatal(err)
	}

	if err := sender.Send(1, &protocol.Message{SenderID: 0}); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-receiver.Receive():
		t.Fatalf("receiver-side loss did not drop: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestOneWayDelayIsHalfOfEachRoundTrip(t *testing.T) {
	network := NewNetwork(1)
	sender, err := network.CreateSocket(0, Options{DelayMin: 40, DelayMax: 40})
	if err != nil {
		t.Fatal(err)
	}
	receiver, err := network.CreateSocket(1, Options{DelayMin: 40, DelayMax: 40})
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	if err := sender.Send(1, &protocol.Message{SenderID: 0}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-receiver.Receive():
	case <-time.After(time.Second):
		t.Fatal("message never arrived")
	}

	// 20ms from each side's half round trip.
	if elapsed := time.Since(start); elapsed < 35*time.Millisecond {
		t.Fatalf("arrived after %v, want around 40ms", elapsed)
	}
}
