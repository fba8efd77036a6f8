// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package pipeline

import (
	"os"
	"sync"
	"time"

	"github.com/Shopify/sarama"
	"github.com/aristanetworks/goarista/logger"
	"github.com/cenkalti/backoff/v4"
)

// kafkaSink forwards expired work items to a Kafka topic. It is the
// retry-scheduler node's terminal step: once an EPQ item expires, its
// payload is produced here. Adapted from
// kafka/producer/producer.go, generalized from proto.Message to a raw
// []byte payload and with exponential-backoff retry around enqueue
// failures instead of a bare panic.
type kafkaSink struct {
	topic    string
	producer sarama.AsyncProducer
	log      logger.Logger

	done chan struct{}
	wg   sync.WaitGroup
}

func newKafkaSink(addrs []string, topic string, log logger.Logger) (*kafkaSink, error) {
	cfg := sarama.NewConfig()
	hostname, err := os.Hostname()
	if err != nil {
		hostname = ""
	}
	cfg.ClientID = hostname
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll

	producer, err := sarama.NewAsyncProducer(addrs, cfg)
	if err != nil {
		return nil, err
	}

	s := &kafkaSink{
		topic:    topic,
		producer: producer,
		log:      log,
		done:     make(chan struct{}),
	}
	s.wg.Add(2)
	go s.handleSuccesses()
	go s.handleErrors()
	return s, nil
}

// send enqueues payload for production, retrying the enqueue itself
// (not delivery, which sarama already retries internally) with
// exponential backoff if the producer's input channel can't accept it
// immediately.
func (s *kafkaSink) send(payload []byte) {
	msg := &sarama.ProducerMessage{Topic: s.topic, Value: sarama.ByteEncoder(payload)}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	op := func() error {
		select {
		case s.producer.Input() <- msg:
			return nil
		case <-s.done:
			return backoff.Permanent(nil)
		default:
			return errSinkBusy
		}
	}
	if err := backoff.Retry(op, bo); err != nil {
		s.log.Errorf("pipeline: giving up producing to kafka topic %s: %v", s.topic, err)
	}
}

func (s *kafkaSink) handleSuccesses() {
	defer s.wg.Done()
	for range s.producer.Successes() {
		if s.log.V(9) {
			s.log.Infof("pipeline: message produced to kafka topic %s", s.topic)
		}
	}
}

func (s *kafkaSink) handleErrors() {
	defer s.wg.Done()
	for err := range s.producer.Errors() {
		s.log.Errorf("pipeline: kafka produce error: %v", err)
	}
}

func (s *kafkaSink) Close() {
	close(s.done)
	s.producer.Close()
	s.wg.Wait()
}

var errSinkBusy = &sinkBusyError{}

type sinkBusyError struct{}

func (*sinkBusyError) Error() string { return "pipeline: kafka producer input channel is full" }
