package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

func TestEmitGameOver(t *testing.T) {
	mp := mocks.NewSyncProducer(t, nil)
	mp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var e GameEvent
		if err := json.Unmarshal(val, &e); err != nil {
			return err
		}
		if e.Event != GameOver || e.GameID != "g1" || e.Winner != "Red" || e.Moves != 7 {
			return fmt.Errorf("unexpected event %+v", e)
		}
		return nil
	})

	p := NewProducerWith(mp, "game-events")
	if err := p.EmitGameOver(GameEvent{GameID: "g1", Outcome: "won", Winner: "Red", Moves: 7}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestEmitGameOverReportsBrokerError(t *testing.T) {
	mp := mocks.NewSyncProducer(t, nil)
	mp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducerWith(mp, "game-events")
	err := p.EmitGameOver(GameEvent{GameID: "g2", Outcome: "draw"})
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected broker error, got %v", err)
	}
	p.Close()
}
