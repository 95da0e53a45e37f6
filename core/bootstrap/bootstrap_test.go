package bootstrap

import (
	"context"
	"errors"
	"reflect"
	"testing"

	coreconfig "github.com/m3rciful/salonbot/core/config"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunOpensAndClosesInReverse(t *testing.T) {
	var order []string
	step := func(name string) Step {
		return Step{Name: name, Open: func(context.Context) (func() error, error) {
			order = append(order, "open "+name)
			return func() error {
				order = append(order, "close "+name)
				return nil
			}, nil
		}}
	}
	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Steps:      []Step{step("a"), step("b")},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := res.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	want := []string{"open a", "open b", "close b", "close a"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestRunRollsBackOnFailure(t *testing.T) {
	closed := false
	boom := errors.New("boom")
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Steps: []Step{
			{Name: "ok", Open: func(context.Context) (func() error, error) {
				return func() error { closed = true; return nil }, nil
			}},
			{Name: "bad", Open: func(context.Context) (func() error, error) { return nil, boom }},
		},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if !closed {
		t.Fatalf("opened step was not closed")
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if _, err := Run(context.Background(), Options{}); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestRunLoggerFailure(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return errors.New("no sink") },
	})
	if err == nil {
		t.Fatalf("expected logger init error")
	}
}
