package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robotalks/encoder.go/pkg/cli/sh"
	"github.com/robotalks/encoder.go/pkg/l1"
	"github.com/robotalks/encoder.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/encoder.go/pkg/l1/msgs"

	_ "github.com/robotalks/encoder.go/pkg/cli/cmds/all"
)

var (
	mqttURL = "mqtt://localhost:1883/robo/"
	topic   = "#"
)

func init() {
	if val := os.Getenv("ENCODER_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&topic, "topic", topic, "Topic filter under the prefix, e.g. encoder/+/msg.")
}

func printMessage(topic string, payload []byte) {
	ref, err := l1.ParseControllerRef(topic)
	if err != nil {
		log.Printf("%s: %d bytes", topic, len(payload))
		return
	}
	if strings.HasSuffix(topic, "/"+mqtt.TopicMeta) {
		if len(payload) == 0 {
			log.Printf("%s: offline", ref.Name())
		} else {
			log.Printf("%s: online %s", ref.Name(), payload)
		}
		return
	}
	typed, err := msgs.DecodeTyped(payload)
	if err != nil {
		log.Printf("%s: bad message: %v", topic, err)
		return
	}
	msg, err := typed.Decode()
	if err != nil {
		log.Printf("%s: type %#08x: %v", topic, typed.TypeId, err)
		return
	}
	log.Printf("%s: #%d %s", topic, typed.Sequence, sh.FormatResult(msg))
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	defer q.Close()
	q.Sub(topic, printMessage)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
}
