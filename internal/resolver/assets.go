package resolver

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/mark3labs/promptr/internal/catalog"
	"github.com/mark3labs/promptr/internal/logger"
	"github.com/mark3labs/promptr/internal/placeholder"
)

// Reasons recorded for asset placeholders left in the text.
const (
	reasonAssetNotFound = "asset not found"
	reasonNoActiveAsset = "no active version"
)

// resolveAssets substitutes {{asset:key[:tag]}} placeholders from the
// prompt's assets. Keys that are also variable names are left for variable
// resolution. Missing assets never fail the resolution. A placeholder a
// nested prompt already reported as unresolved is not reported again.
func (e *Engine) resolveAssets(ctx context.Context, p *catalog.Prompt, text, lang string, vars map[string]any, md *Metadata) (string, error) {
	var refs []placeholder.Placeholder
	var keys []string
	seenKey := make(map[string]struct{})
	for _, ph := range placeholder.Distinct(placeholder.ScanKind(text, placeholder.KindAsset)) {
		key := ph.Ref.(placeholder.AssetRef).Key
		if _, ok := vars[key]; ok {
			logger.Debug("Prompt %q: %s shadowed by variable %q", p.ID, ph.Literal, key)
			continue
		}
		refs = append(refs, ph)
		if _, ok := seenKey[key]; !ok {
			seenKey[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	if len(refs) == 0 {
		return text, nil
	}

	assets, err := e.src.AssetsByKeys(ctx, p.ProjectID, p.ID, keys)
	if err != nil {
		return "", errors.Wrapf(err, "failed to load assets of prompt %q", p.ID)
	}
	byKey := make(map[string]*catalog.Asset, len(assets))
	for i := range assets {
		catalog.SortAssetVersions(assets[i].Versions)
		byKey[assets[i].Key] = &assets[i]
	}

	reported, _ := md.nestedUnresolved()
	unresolved := func(ph placeholder.Placeholder, key, reason string) {
		if _, ok := reported[ph.Literal]; ok {
			return
		}
		logger.Warn("Prompt %q: asset %q unresolved (%s), leaving %s", p.ID, key, reason, ph.Literal)
		md.UnresolvedAssets = append(md.UnresolvedAssets, UnresolvedAsset{Key: key, Placeholder: ph.Literal, Reason: reason})
	}

	repl := make(map[string]string, len(refs))
	for _, ph := range refs {
		ref := ph.Ref.(placeholder.AssetRef)
		asset, ok := byKey[ref.Key]
		if !ok {
			unresolved(ph, ref.Key, reasonAssetNotFound)
			continue
		}

		version, requested := selectAssetVersion(asset, ref.VersionTag)
		if version == nil {
			unresolved(ph, ref.Key, reasonNoActiveAsset)
			continue
		}
		if requested != "" {
			logger.Warn("Prompt %q: asset %q has no version %q, using %q", p.ID, ref.Key, requested, version.Tag)
		}

		value, used := assetValue(version, lang)
		if used == BaseAssetFallback {
			logger.Warn("Prompt %q: asset %q has no %s translation, using base value", p.ID, ref.Key, lang)
		}
		repl[ph.Literal] = value
		md.AssetsUsed = append(md.AssetsUsed, AssetUsage{
			Key:          ref.Key,
			Placeholder:  ph.Literal,
			VersionID:    version.ID,
			VersionTag:   version.Tag,
			RequestedTag: requested,
			LanguageUsed: used,
		})
	}
	return placeholder.Replace(text, repl), nil
}

// selectAssetVersion picks the tagged version, or the newest active one when
// no tag is given or the tag is unknown. requested is the tag that could not
// be honored, if any.
func selectAssetVersion(a *catalog.Asset, tag string) (v *catalog.AssetVersion, requested string) {
	if tag != "" {
		if v, ok := a.VersionByTag(tag); ok {
			return v, ""
		}
		requested = tag
	}
	v, ok := a.NewestActive()
	if !ok {
		return nil, requested
	}
	return v, requested
}

func assetValue(v *catalog.AssetVersion, lang string) (value, used string) {
	if lang == "" {
		return v.Value, BaseAsset
	}
	if tr, ok := v.Translation(lang); ok {
		return tr.Value, lang
	}
	return v.Value, BaseAssetFallback
}
