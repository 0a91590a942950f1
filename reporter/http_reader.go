// Reader is a client of a running http reporter.

package reporter

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
)

type HttpReader struct {
	serverIP   string // listen ip
	serverPort string // listen port
}

func NewHttpReader(serverIP string, serverPort string) *HttpReader {
	return &HttpReader{
		serverIP:   serverIP,
		serverPort: serverPort,
	}
}

func (hr *HttpReader) get(route string, query url.Values) (string, error) {
	u := "http://" + hr.serverIP + ":" + hr.serverPort + route
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	resp, err := http.Get(u)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	// Read the response body
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return string(body), fmt.Errorf("%s: status %d", route, resp.StatusCode)
	}
	return string(body), nil
}

func (hr *HttpReader) GetHello() (string, error) {
	return hr.get(ROUTE_HELLO, nil)
}

func (hr *HttpReader) GetContract(address string) (string, error) {
	return hr.get(ROUTE_CONTRACT, url.Values{"address": {address}})
}

func (hr *HttpReader) GetContracts(state string) (string, error) {
	return hr.get(ROUTE_CONTRACTS, url.Values{"state": {state}})
}

func (hr *HttpReader) Audit(programHex string) (string, error) {
	return hr.get(ROUTE_AUDIT, url.Values{"program": {programHex}})
}
