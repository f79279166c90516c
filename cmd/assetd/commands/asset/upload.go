package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetd/cmd/assetd/cmdutil"
	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/marmos91/assetd/pkg/registry"
	"github.com/marmos91/assetd/pkg/thumbnail"
)

var (
	uploadRef       refFlags
	uploadFile      string
	uploadThumbnail string
	uploadMode      string
	uploadFormat    string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <id>",
	Short: "Upload an asset",
	Long: `Upload a file as an asset version.

Uploading a version that already exists fails; versions are immutable.
With --thumbnail the file must be an image, and a thumbnail is stored next
to it under the suffix "thumbnail-WxH".

Examples:
  # Upload version 1 of an asset
  assetd asset upload 6f1c0c43 --version 1 --file photo.jpg

  # Upload from stdin with a 200x200 cropped thumbnail
  cat photo.jpg | assetd asset upload 6f1c0c43 --version 2 --thumbnail 200x200 --mode crop`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadRef.register(uploadCmd)
	uploadCmd.Flags().StringVarP(&uploadFile, "file", "f", "-", "File to upload (- for stdin)")
	uploadCmd.Flags().StringVar(&uploadThumbnail, "thumbnail", "", "Also store a thumbnail of this size (WxH)")
	uploadCmd.Flags().StringVar(&uploadMode, "mode", string(thumbnail.ModeMax), "Thumbnail mode (max|crop)")
	uploadCmd.Flags().StringVar(&uploadFormat, "format", string(thumbnail.FormatJPEG), "Thumbnail format (jpeg|png)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	ref, err := uploadRef.ref(args[0])
	if err != nil {
		return err
	}

	var thumbOpts *thumbnail.Options
	if uploadThumbnail != "" {
		w, h, err := thumbnail.ParseSize(uploadThumbnail)
		if err != nil {
			return err
		}
		thumbOpts = &thumbnail.Options{
			Width:  w,
			Height: h,
			Mode:   thumbnail.Mode(uploadMode),
			Format: thumbnail.Format(uploadFormat),
		}
	}

	in, cleanup, err := openUploadInput(uploadFile, thumbOpts != nil)
	if err != nil {
		return err
	}
	defer cleanup()

	return withStore(cmd, func(ctx context.Context, reg *registry.Registry, store assetstore.AssetStore) error {
		if thumbOpts != nil {
			if err := checkImage(reg.ThumbnailGenerator(), in); err != nil {
				return err
			}
		}

		if err := store.Upload(ctx, ref, in); err != nil {
			return fmt.Errorf("failed to upload %s: %w", ref, err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s to %s\n", ref, store.SourceURL(ref))

		if thumbOpts == nil {
			return nil
		}

		thumbRef, err := uploadThumbnailOf(ctx, reg.ThumbnailGenerator(), store, ref, in, *thumbOpts)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s to %s\n", thumbRef, store.SourceURL(thumbRef))
		return nil
	})
}

// openUploadInput opens the upload source. When seekable is set, stdin is
// spooled to a temporary file so it can be read twice.
func openUploadInput(path string, seekable bool) (io.ReadSeeker, func(), error) {
	f, err := cmdutil.OpenInput(path)
	if err != nil {
		return nil, nil, err
	}
	if f != os.Stdin {
		return f, func() { _ = f.Close() }, nil
	}
	if !seekable {
		return readerOnly{f}, func() {}, nil
	}

	tmp, err := os.CreateTemp("", "assetd-upload-*")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to spool stdin: %w", err)
	}
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}
	if _, err := io.Copy(tmp, f); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to spool stdin: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, nil, err
	}
	return tmp, cleanup, nil
}

// readerOnly hides Seek from a stream that cannot seek.
type readerOnly struct {
	io.Reader
}

func (readerOnly) Seek(offset int64, whence int) (int64, error) {
	return 0, errors.New("input is not seekable")
}

// checkImage verifies that in holds a supported image and rewinds it.
func checkImage(gen *thumbnail.Generator, in io.ReadSeeker) error {
	info, err := gen.ImageInfo(in)
	if err != nil {
		return err
	}
	if info == nil {
		return errors.New("--thumbnail requires an image file")
	}
	_, err = in.Seek(0, io.SeekStart)
	return err
}

// uploadThumbnailOf renders a thumbnail of in and stores it next to ref.
func uploadThumbnailOf(ctx context.Context, gen *thumbnail.Generator, store assetstore.Store, ref assetstore.Ref, in io.ReadSeeker, opts thumbnail.Options) (assetstore.Ref, error) {
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return assetstore.Ref{}, err
	}

	var buf bytes.Buffer
	if err := gen.CreateThumbnail(in, &buf, opts); err != nil {
		return assetstore.Ref{}, fmt.Errorf("failed to create thumbnail: %w", err)
	}

	thumbRef := ref
	thumbRef.Suffix = thumbnail.Suffix(opts.Width, opts.Height)
	if err := store.Upload(ctx, thumbRef, &buf); err != nil {
		return assetstore.Ref{}, fmt.Errorf("failed to upload %s: %w", thumbRef, err)
	}
	return thumbRef, nil
}
