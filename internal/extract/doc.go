// Package extract pulls embedded payloads out of import records.
//
// Skeletons finds the {skeleton, bones} subtree inside every sp.SkeletonData
// record of a bundle and writes it as standalone indented JSON. FindAnimation
// locates the {stillPathList, animation} block inside a bundle's JsonAsset
// records; Timeline turns one clip of it into timed frames that WriteConcat
// renders as an ffconcat list for an external muxer.
package extract
