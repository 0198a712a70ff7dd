package cmd

import (
	"github.com/lodeworks/stockpipe/adapter"
	"github.com/lodeworks/stockpipe/adapter/redis"
	"github.com/lodeworks/stockpipe/adapter/webhook"
)

func webhookNew(choice adapterChoice, retries int) (adapter.Adapter, error) {
	return webhook.New(webhook.Config{
		URL:     choice.url,
		Headers: choice.headers,
		Timeout: choice.timeout,
		Retries: retries,
	})
}

func redisNew(choice adapterChoice, retries int) (adapter.Adapter, error) {
	return redis.New(redis.Config{
		URL:     choice.url,
		Channel: choice.channel,
		Timeout: choice.timeout,
		Retries: retries,
	})
}
