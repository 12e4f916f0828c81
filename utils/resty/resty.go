package resty

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

type RestyClient interface {
	MakeRequest(ctx context.Context, header map[string]string) ReadyRestyReq
}

type ReadyRestyReq interface {
	Get(url string, queryParams ...QueryParam) (*resty.Response, error)
}

type QueryParam struct {
	Key   string
	Value string
}

func NewDefaultRestyClient(retryCount int, timeout ...time.Duration) RestyClient {
	client := resty.New()
	client.SetTimeout(10 * time.Second)
	if len(timeout) > 0 {
		client.SetTimeout(timeout[0])
	}
	client.SetRetryCount(retryCount)
	client.SetRetryWaitTime(time.Second)
	client.SetRetryMaxWaitTime(5 * time.Second)
	client.AddRetryCondition(func(response *resty.Response, err error) bool {
		return err != nil || response.StatusCode() >= 500
	})
	return &defaultRestyClient{restyClient: client}
}

type defaultRestyClient struct {
	restyClient *resty.Client
}

func (client *defaultRestyClient) MakeRequest(ctx context.Context, header map[string]string) ReadyRestyReq {
	request := client.restyClient.R().SetContext(ctx)
	request.SetHeader("Accept", "application/json")
	if header != nil {
		request.SetHeaders(header)
	}
	return &defaultReadyRestyReq{request: request}
}

type defaultReadyRestyReq struct {
	request *resty.Request
}

func (r *defaultReadyRestyReq) Get(url string, queryParams ...QueryParam) (*resty.Response, error) {
	for _, param := range queryParams {
		r.request.SetQueryParam(param.Key, param.Value)
	}
	return r.request.Get(url)
}
