/* Copyright 2025 Shoplist Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package client provides interfaces for interacting with the Shoplist server
// and the data structures for responses
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shoplist/shoplist/pkg/cli/context"
	"github.com/shoplist/shoplist/pkg/cli/log"
	"golang.org/x/time/rate"
)

// ErrInvalidLogin is an error for invalid credentials for login
var ErrInvalidLogin = errors.New("wrong credentials")

// ErrContentTypeMismatch is an error for an unexpected response content type
var ErrContentTypeMismatch = errors.New("content type mismatch")

// HTTPError represents an HTTP error response from the server
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf(`response %d "%s"`, e.StatusCode, e.Message)
}

// IsConflict returns true if the error is a 409 Conflict error
func (e *HTTPError) IsConflict() bool {
	return e.StatusCode == 409
}

// IsPermanent returns true if retrying the same request cannot succeed.
// Timeouts and rate limiting are transient even though they are 4xx.
func (e *HTTPError) IsPermanent() bool {
	if e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusTooManyRequests {
		return false
	}

	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsPermanentError reports whether the given error wraps an HTTPError that
// cannot succeed on retry. Network errors and 5xx responses are transient.
func IsPermanentError(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.IsPermanent()
	}

	return false
}

// IsTransientError reports whether the given error indicates that the server
// was unreachable or failed in a way that may succeed on retry
func IsTransientError(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return !httpErr.IsPermanent()
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

var contentTypeApplicationJSON = "application/json"
var contentTypeNone = ""

// requestOptions contains options for requests
type requestOptions struct {
	HTTPClient *http.Client
	// ExpectedContentType is the Content-Type that the client is expecting from the server
	ExpectedContentType *string
	// IdempotencyKey deduplicates retried writes on the server side
	IdempotencyKey string
}

const (
	// clientRateLimitPerSecond is the max requests per second the client will make
	clientRateLimitPerSecond = 50
	// clientRateLimitBurst is the burst capacity for rate limiting
	clientRateLimitBurst = 100
)

// rateLimitedTransport wraps an http.RoundTripper with rate limiting
type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient creates an HTTP client with rate limiting
func NewRateLimitedHTTPClient() *http.Client {
	interval := time.Second / time.Duration(clientRateLimitPerSecond)

	transport := &rateLimitedTransport{
		transport: http.DefaultTransport,
		limiter:   rate.NewLimiter(rate.Every(interval), clientRateLimitBurst),
	}
	return &http.Client{
		Transport: transport,
	}
}

func getHTTPClient(ctx context.ShoplistCtx, options *requestOptions) *http.Client {
	if options != nil && options.HTTPClient != nil {
		return options.HTTPClient
	}

	if ctx.HTTPClient != nil {
		return ctx.HTTPClient
	}

	return &http.Client{}
}

func getExpectedContentType(options *requestOptions) string {
	if options != nil && options.ExpectedContentType != nil {
		return *options.ExpectedContentType
	}

	return contentTypeApplicationJSON
}

func getReq(ctx context.ShoplistCtx, path, method, body string, options *requestOptions) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s%s", ctx.APIEndpoint, path)
	req, err := http.NewRequest(method, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "constructing http request")
	}

	req.Header.Set("CLI-Version", ctx.Version)

	if ctx.SessionKey != "" {
		credential := fmt.Sprintf("Bearer %s", ctx.SessionKey)
		req.Header.Set("Authorization", credential)
	}

	if options != nil && options.IdempotencyKey != "" {
		req.Header.Set("X-Idempotency-Key", options.IdempotencyKey)
	}

	return req, nil
}

// checkRespErr checks if the given http response indicates an error. It returns a boolean indicating
// if the response is an error, and a decoded error message.
func checkRespErr(res *http.Response) error {
	if res.StatusCode < 400 {
		return nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "server responded with %d but client could not read the response body", res.StatusCode)
	}

	bodyStr := string(body)
	return &HTTPError{
		StatusCode: res.StatusCode,
		Message:    strings.TrimRight(bodyStr, "\n"),
	}
}

func checkContentType(res *http.Response, options *requestOptions) error {
	expected := getExpectedContentType(options)

	got := res.Header.Get("Content-Type")
	if got != expected {
		return errors.Wrapf(ErrContentTypeMismatch, "got: '%s' want: '%s'. Did you configure your endpoint correctly?", got, expected)
	}

	return nil
}

// doReq does a http request to the given path in the api endpoint
func doReq(ctx context.ShoplistCtx, method, path, body string, options *requestOptions) (*http.Response, error) {
	req, err := getReq(ctx, path, method, body, options)
	if err != nil {
		return nil, errors.Wrap(err, "getting request")
	}

	log.Debug("HTTP %s %s\n", method, path)

	hc := getHTTPClient(ctx, options)
	res, err := hc.Do(req)
	if err != nil {
		return res, errors.Wrap(err, "making http request")
	}

	log.Debug("HTTP %d %s\n", res.StatusCode, res.Status)

	if err = checkRespErr(res); err != nil {
		return res, errors.Wrap(err, "server responded with an error")
	}

	if err = checkContentType(res, options); err != nil {
		return res, errors.Wrap(err, "unexpected Content-Type")
	}

	return res, nil
}

// doAuthorizedReq does a http request to the given path in the api endpoint as a user,
// with the appropriate headers. The given path should include the preceding slash.
func doAuthorizedReq(ctx context.ShoplistCtx, method, path, body string, options *requestOptions) (*http.Response, error) {
	if ctx.SessionKey == "" {
		return nil, errors.New("no session key found")
	}

	return doReq(ctx, method, path, body, options)
}

// RemoteRecord is a record in a server response. Timestamps are epoch
// milliseconds.
type RemoteRecord struct {
	ID        string                 `json:"id"`
	CreatedAt int64                  `json:"created_at"`
	UpdatedAt int64                  `json:"updated_at"`
	Deleted   bool                   `json:"deleted"`
	Fields    map[string]interface{} `json:"fields"`
}

// RecordPayload is a payload for creating or updating a record
type RecordPayload struct {
	CreatedAt int64                  `json:"created_at"`
	UpdatedAt int64                  `json:"updated_at"`
	Fields    map[string]interface{} `json:"fields"`
}

// CreateRecordResp is the response from the create record endpoint
type CreateRecordResp struct {
	Record RemoteRecord `json:"record"`
}

// CreateRecord creates a record of the given table in the server. The local id
// is sent as an idempotency key so that a retried create after a lost response
// maps back to the same remote record.
func CreateRecord(ctx context.ShoplistCtx, table, localID string, payload RecordPayload) (CreateRecordResp, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return CreateRecordResp{}, errors.Wrap(err, "marshaling payload")
	}

	opts := requestOptions{IdempotencyKey: localID}
	path := fmt.Sprintf("/v1/%s", table)
	res, err := doAuthorizedReq(ctx, "POST", path, string(b), &opts)
	if err != nil {
		return CreateRecordResp{}, errors.Wrap(err, "posting a record to the server")
	}

	var resp CreateRecordResp
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return CreateRecordResp{}, errors.Wrap(err, "decoding payload")
	}

	return resp, nil
}

// UpdateRecordResp is the response from the update record endpoint
type UpdateRecordResp struct {
	Record RemoteRecord `json:"record"`
}

// UpdateRecord updates a record in the server
func UpdateRecord(ctx context.ShoplistCtx, table, remoteID string, payload RecordPayload) (UpdateRecordResp, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return UpdateRecordResp{}, errors.Wrap(err, "marshaling payload")
	}

	path := fmt.Sprintf("/v1/%s/%s", table, remoteID)
	res, err := doAuthorizedReq(ctx, "PATCH", path, string(b), nil)
	if err != nil {
		return UpdateRecordResp{}, errors.Wrap(err, "patching a record in the server")
	}

	var resp UpdateRecordResp
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return UpdateRecordResp{}, errors.Wrap(err, "decoding payload")
	}

	return resp, nil
}

// DeleteRecordResp is the response from the delete record endpoint
type DeleteRecordResp struct {
	Status int `json:"status"`
}

// DeleteRecord tombstones a record in the server. The deletion timestamp
// participates in conflict resolution on other devices.
func DeleteRecord(ctx context.ShoplistCtx, table, remoteID string, deletedAt int64) (DeleteRecordResp, error) {
	v := url.Values{}
	v.Set("deleted_at", strconv.FormatInt(deletedAt, 10))

	path := fmt.Sprintf("/v1/%s/%s?%s", table, remoteID, v.Encode())
	res, err := doAuthorizedReq(ctx, "DELETE", path, "", nil)
	if err != nil {
		return DeleteRecordResp{}, errors.Wrap(err, "deleting a record in the server")
	}

	var resp DeleteRecordResp
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return DeleteRecordResp{}, errors.Wrap(err, "decoding the response")
	}

	return resp, nil
}

// QueryResp is the response from the query endpoint. Records include
// tombstones so that deletions propagate. ServerTime is the server's clock at
// the time of the query and becomes the next cursor.
type QueryResp struct {
	Records    []RemoteRecord `json:"records"`
	ServerTime int64          `json:"server_time"`
}

// Query fetches the records of the given table changed strictly after the
// given epoch-millisecond cursor
func Query(ctx context.ShoplistCtx, table string, updatedAfter int64) (QueryResp, error) {
	v := url.Values{}
	v.Set("updated_after", strconv.FormatInt(updatedAfter, 10))

	path := fmt.Sprintf("/v1/%s?%s", table, v.Encode())
	res, err := doAuthorizedReq(ctx, "GET", path, "", nil)
	if err != nil {
		return QueryResp{}, errors.Wrap(err, "making the request")
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return QueryResp{}, errors.Wrap(err, "reading the response body")
	}

	var resp QueryResp
	if err = json.Unmarshal(body, &resp); err != nil {
		return resp, errors.Wrap(err, "unmarshalling the payload")
	}

	return resp, nil
}

// GetHealth checks that the server is reachable. It requires no session and
// is used by the connectivity monitor.
func GetHealth(ctx context.ShoplistCtx) error {
	opts := requestOptions{ExpectedContentType: &contentTypeNone}
	_, err := doReq(ctx, "GET", "/v1/health", "", &opts)
	if err != nil {
		return errors.Wrap(err, "making http request")
	}

	return nil
}

// SigninPayload is a payload for /v1/signin
type SigninPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SigninResponse is a response from /v1/signin endpoint
type SigninResponse struct {
	Key       string `json:"key"`
	ExpiresAt int64  `json:"expires_at"`
	UserUUID  string `json:"user_uuid"`
}

// Signin requests a session token
func Signin(ctx context.ShoplistCtx, email, password string) (SigninResponse, error) {
	payload := SigninPayload{
		Email:    email,
		Password: password,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return SigninResponse{}, errors.Wrap(err, "marshaling payload")
	}
	res, err := doReq(ctx, "POST", "/v1/signin", string(b), nil)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized {
			return SigninResponse{}, ErrInvalidLogin
		}
		return SigninResponse{}, errors.Wrap(err, "making http request")
	}

	var resp SigninResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return SigninResponse{}, errors.Wrap(err, "decoding payload")
	}

	return resp, nil
}

// Signout deletes a user session on the server side
func Signout(ctx context.ShoplistCtx, sessionKey string) error {
	// share the transport (and thus rate limiter) from ctx.HTTPClient
	// but do not follow redirects
	var hc *http.Client
	if ctx.HTTPClient != nil {
		hc = &http.Client{
			Transport: ctx.HTTPClient.Transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	} else {
		log.Warnf("No HTTP client configured for signout - falling back\n")
		hc = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	opts := requestOptions{
		HTTPClient:          hc,
		ExpectedContentType: &contentTypeNone,
	}
	_, err := doAuthorizedReq(ctx, "POST", "/v1/signout", "", &opts)
	if err != nil {
		return errors.Wrap(err, "making http request")
	}

	return nil
}
