// Copyright 2026 The go-paperclip Authors
// This file is part of the go-paperclip library.
//
// The go-paperclip library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-paperclip library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-paperclip library. If not, see <http://www.gnu.org/licenses/>.

package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/Azure/azure-storage-blob-go/azblob"
	"github.com/paperclip-protocol/go-paperclip/protocol"
)

// AzureConfig locates a blob container.
type AzureConfig struct {
	Account   string // Account name of the storage account
	Token     string // Shared key of the storage account
	Container string // Blob container holding the objects
}

// Azure keeps objects as block blobs named by their pointer.
type Azure struct {
	container azblob.ContainerURL
}

// NewAzure creates a store on the configured container.
func NewAzure(config AzureConfig) (*Azure, error) {
	credential, err := azblob.NewSharedKeyCredential(config.Account, config.Token)
	if err != nil {
		return nil, err
	}
	pipeline := azblob.NewPipeline(credential, azblob.PipelineOptions{})

	u, err := url.Parse(fmt.Sprintf("https://%s.blob.core.windows.net", config.Account))
	if err != nil {
		return nil, err
	}
	service := azblob.NewServiceURL(*u, pipeline)
	return &Azure{container: service.NewContainerURL(config.Container)}, nil
}

// classify maps storage failures onto the store's error model.
func classify(err error) error {
	if serr, ok := err.(azblob.StorageError); ok {
		if serr.ServiceCode() == azblob.ServiceCodeBlobNotFound {
			return ErrNotFound
		}
		if resp := serr.Response(); resp != nil && resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
			return err
		}
	}
	return protocol.Transient(err)
}

func (a *Azure) Put(ctx context.Context, pointer string, data []byte) error {
	if err := Verify(pointer, data); err != nil {
		return err
	}
	blob := a.container.NewBlockBlobURL(pointer)
	headers := azblob.BlobHTTPHeaders{ContentType: "application/json"}
	if _, err := blob.Upload(ctx, bytes.NewReader(data), headers, azblob.Metadata{}, azblob.BlobAccessConditions{}); err != nil {
		return classify(err)
	}
	return nil
}

func (a *Azure) Get(ctx context.Context, pointer string) ([]byte, error) {
	if _, err := parse(pointer); err != nil {
		return nil, err
	}
	blob := a.container.NewBlockBlobURL(pointer)
	resp, err := blob.Download(ctx, 0, azblob.CountToEnd, azblob.BlobAccessConditions{}, false)
	if err != nil {
		return nil, classify(err)
	}
	body := resp.Body(azblob.RetryReaderOptions{MaxRetryRequests: 1})
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxObjectSize+1))
	if err != nil {
		return nil, protocol.Transient(err)
	}
	if len(data) > maxObjectSize {
		return nil, fmt.Errorf("blob %s exceeds %d bytes", pointer, maxObjectSize)
	}
	return data, nil
}
